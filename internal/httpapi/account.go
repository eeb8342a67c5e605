package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/focusnest/planner-service/internal/user"
	sharedauth "github.com/focusnest/planner-service/shared/auth"
	sharederrors "github.com/focusnest/planner-service/shared/errors"
)

type accountCtxKey struct{}

// accountMiddleware resolves the bearer identity to a stored account, creating it on first sight.
func (h *handler) accountMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := sharedauth.UserFromContext(r.Context())
		if !ok || identity.Email == "" {
			writeError(w, r, sharederrors.CodeUnauthorized, "missing authenticated user")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		account, err := h.svc.Users.GetByEmail(ctx, identity.Email)
		if errors.Is(err, user.ErrNotFound) {
			account, _, err = h.svc.Users.SignIn(ctx, identity.Email, identity.DisplayName)
		}
		if err != nil {
			if errors.Is(err, user.ErrInvalidInput) {
				writeError(w, r, sharederrors.CodeUnauthorized, invalidInputMessage(err))
				return
			}
			h.logRequestError(r, "resolve account failed", err)
			writeError(w, r, sharederrors.CodeInternal, "internal server error")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), accountCtxKey{}, account)))
	})
}

func (h *handler) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.isAdmin(accountFrom(r).Email) {
			writeError(w, r, sharederrors.CodeForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func accountFrom(r *http.Request) user.User {
	u, _ := r.Context().Value(accountCtxKey{}).(user.User)
	return u
}

func accountID(ctx context.Context) string {
	u, _ := ctx.Value(accountCtxKey{}).(user.User)
	return u.ID
}

func (h *handler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	profile, err := h.svc.Users.Profile(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *handler) getBalance(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	balance, err := h.svc.Ledger.Balance(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (h *handler) getStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	st, err := h.svc.Stats.Ensure(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	st, err := h.svc.Stats.RecordActivity(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handler) listBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	list, err := h.svc.Badges.List(ctx, accountFrom(r).ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": list})
}

type creditAdjustmentRequest struct {
	Email  string `json:"email"`
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

func (h *handler) grantCredits(w http.ResponseWriter, r *http.Request) {
	h.adjustCredits(w, r, h.svc.Ledger.Grant)
}

func (h *handler) deductCredits(w http.ResponseWriter, r *http.Request) {
	h.adjustCredits(w, r, h.svc.Ledger.Deduct)
}

func (h *handler) adjustCredits(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID string, amount int, reason string) (int, error)) {
	var req creditAdjustmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "admin"
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	target, err := h.svc.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	balance, err := apply(ctx, target.ID, req.Amount, reason)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userId": target.ID, "balance": balance})
}
