package pubsub

// Topic names used across planner event consumers.
const (
	TopicUserEvents     = "user.events"
	TopicSessionEvents  = "session.events"
	TopicCreditEvents   = "credit.events"
	TopicProgressEvents = "progress.events"
)
