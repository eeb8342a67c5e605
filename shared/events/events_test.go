package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/focusnest/planner-service/shared/pubsub"
)

func TestVariantsCarryKindAndTopic(t *testing.T) {
	cases := []struct {
		event Event
		kind  Kind
		topic string
	}{
		{UserSignedUp{UserID: "u"}, KindUserSignedUp, pubsub.TopicUserEvents},
		{CreditsChanged{UserID: "u"}, KindCreditsChanged, pubsub.TopicCreditEvents},
		{SessionStarted{UserID: "u"}, KindSessionStarted, pubsub.TopicSessionEvents},
		{SessionCompleted{UserID: "u"}, KindSessionCompleted, pubsub.TopicSessionEvents},
		{StreakAdvanced{UserID: "u"}, KindStreakAdvanced, pubsub.TopicProgressEvents},
		{BadgeAwarded{UserID: "u"}, KindBadgeAwarded, pubsub.TopicProgressEvents},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.event.Kind())
		assert.Equal(t, tc.topic, tc.event.Topic())
		assert.Equal(t, "u", tc.event.Subject())
	}
}
