package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/prostore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

const (
	idempotencyHeader = "Idempotency-Key"
	maxIdempotencyKey = 128

	// OrderReplayTTL keeps checkout and payment approval replies for a week
	// so a client retrying after an outage still sees the original order.
	OrderReplayTTL = 7 * 24 * time.Hour
	// AdminReplayTTL covers admin writes, which are retried interactively.
	AdminReplayTTL = 24 * time.Hour

	// inFlightTTL bounds how long a claimed key blocks duplicates when the
	// process dies before storing the reply.
	inFlightTTL = 2 * time.Minute
)

// ReplayStore persists idempotent replies.
type ReplayStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

// replay is the stored form of a finished request. An entry without a
// status is a claim held by a request still running.
type replay struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

func (r replay) finished() bool { return r.Status != 0 }

// Idempotent requires an Idempotency-Key on the wrapped route and answers
// repeats of a finished request with the stored reply for ttl. A key reused
// with a different body is rejected. A nil store disables the check.
func Idempotent(store ReplayStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if clientKey == "" || len(clientKey) > maxIdempotencyKey {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required").
					WithDetails(map[string]any{"max_length": maxIdempotencyKey}))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := store.IdempotencyKey(callerScope(r), clientKey)
			claim := replay{Fingerprint: fingerprint(r.Method, r.URL.Path, body)}

			claimed, err := claimKey(ctx, store, key, claim)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if !claimed {
				prior, err := loadReplay(ctx, store, key)
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				switch {
				case prior.Fingerprint != claim.Fingerprint:
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
				case !prior.finished():
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress"))
				default:
					writeReplay(w, prior)
				}
				return
			}

			capture := &replayRecorder{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			// Server failures release the key so the client can retry.
			if capture.statusCode() >= http.StatusInternalServerError {
				if err := store.Del(context.WithoutCancel(ctx), key); err != nil {
					logg.Error(ctx, "release idempotency key", err)
				}
				return
			}

			claim.Status = capture.statusCode()
			claim.ContentType = capture.Header().Get("Content-Type")
			claim.Body = capture.buf.Bytes()
			payload, err := json.Marshal(claim)
			if err == nil {
				err = store.Set(context.WithoutCancel(ctx), key, string(payload), ttl)
			}
			if err != nil {
				logg.Error(ctx, "store idempotent reply", err)
			}
		})
	}
}

func claimKey(ctx context.Context, store ReplayStore, key string, claim replay) (bool, error) {
	payload, err := json.Marshal(claim)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode idempotency claim")
	}
	ok, err := store.SetNX(ctx, key, string(payload), inFlightTTL)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key")
	}
	return ok, nil
}

func loadReplay(ctx context.Context, store ReplayStore, key string) (replay, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// Claim expired between SetNX and Get; treat as in progress.
		return replay{}, pkgerrors.New(pkgerrors.CodeConflict, "request with this idempotency key is still in progress")
	}
	if err != nil {
		return replay{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load idempotent reply")
	}
	var out replay
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return replay{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotent reply")
	}
	return out, nil
}

func writeReplay(w http.ResponseWriter, rep replay) {
	if rep.ContentType != "" {
		w.Header().Set("Content-Type", rep.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(rep.Status)
	_, _ = w.Write(rep.Body)
}

// callerScope keys replies by caller so two shoppers cannot collide on the
// same client-chosen key.
func callerScope(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	return "cart:" + SessionCartIDFromContext(r.Context())
}

func fingerprint(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type replayRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (r *replayRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *replayRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *replayRecorder) statusCode() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
