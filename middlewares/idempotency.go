package middlewares

import (
	"strings"

	"procurement-backend/apperrors"
	"procurement-backend/services"

	"github.com/gofiber/fiber/v2"
)

// IdempotencyGuard enforces the Idempotency-Key contract for operations
// statically declared in the registry ("METHOD /path" => required). This
// replaces any runtime metadata lookup: if an operation is not in the
// registry it passes through untouched.
//
// For registered operations: a missing key is a validation error before
// the handler runs; a replayed completed request short-circuits with the
// stored response; the handler's response is persisted afterwards so later
// retries observe byte-identical output.
func IdempotencyGuard(svc *services.IdempotencyService, registry map[string]bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		op := c.Method() + " " + c.Path()
		if !registry[op] {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return apperrors.Validation("Idempotency-Key header is required")
		}
		if len(key) > 128 {
			return apperrors.Validation("Idempotency-Key too long")
		}

		ctx := c.UserContext()
		desc := services.RequestDescriptor{
			Endpoint: c.Path(),
			Method:   c.Method(),
			Body:     c.Body(),
		}

		res, err := svc.CheckAndStore(ctx, key, desc)
		if err != nil {
			return err
		}
		if res.Cached {
			c.Status(res.Status)
			if len(res.Body) > 0 {
				return c.Send(res.Body)
			}
			return nil
		}

		// First sighting: run the handler exactly once.
		if err := c.Next(); err != nil {
			// The handler produced no storable result; release the claim so
			// the caller can retry with the same key.
			svc.Release(ctx, key)
			return err
		}

		resp := c.Response().Body()
		body := make([]byte, len(resp))
		copy(body, resp)
		svc.UpdateResult(ctx, key, c.Response().StatusCode(), body)

		return nil
	}
}
