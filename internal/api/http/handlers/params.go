package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const dateLayout = "2006-01-02"

func principal(c *fiber.Ctx) (*auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c)
	if !ok || p.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return p, nil
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps and plain dates.
func parseTime(val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseOptionalID(val string) (*int64, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return nil, strconv.ErrSyntax
	}
	return &id, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func parseRequestFilter(c *fiber.Ctx) (repository.RequestFilter, error) {
	filter := repository.RequestFilter{}
	invalid := map[string]any{}

	ids := map[string]**int64{
		"category_id":    &filter.CategoryID,
		"status_id":      &filter.StatusID,
		"created_by_id":  &filter.CreatedByID,
		"assigned_to_id": &filter.AssignedToID,
	}
	for name, target := range ids {
		id, err := parseOptionalID(c.Query(name))
		if err != nil {
			invalid[name] = c.Query(name)
			continue
		}
		*target = id
	}

	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority := domain.Priority(strings.ToLower(raw))
		if priority.Valid() {
			filter.Priority = &priority
		} else {
			invalid["priority"] = raw
		}
	}

	from, err := parseTime(c.Query("created_from"))
	if err != nil {
		invalid["created_from"] = c.Query("created_from")
	}
	filter.CreatedFrom = from

	to, err := parseTime(c.Query("created_to"))
	if err != nil {
		invalid["created_to"] = c.Query("created_to")
	}
	if to != nil && len(strings.TrimSpace(c.Query("created_to"))) == len(dateLayout) {
		end := to.Add(24*time.Hour - time.Millisecond)
		to = &end
	}
	filter.CreatedTo = to

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	filter.IncludeUnassigned = c.QueryBool("include_unassigned", false)
	filter.Limit = parseInt(c.Query("limit"), 0)
	filter.Offset = parseInt(c.Query("offset"), 0)

	if len(invalid) > 0 {
		return filter, apperrors.NewValidationError("invalid query parameters", invalid)
	}
	return filter, nil
}
