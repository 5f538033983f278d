package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

var exportHeader = []string{
	"Id", "Title", "Description", "CategoryId", "Priority", "StatusId",
	"CreatedById", "AssignedToId", "CreatedAt", "ClosedAt",
}

// Export writes the filtered listing as semicolon separated CSV.
func (s *RequestService) Export(ctx context.Context, w io.Writer, filter repository.RequestFilter) (int, error) {
	views, err := s.requests.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	requests := make([]domain.Request, 0, len(views))
	for _, view := range views {
		requests = append(requests, view.Request)
	}
	if err := WriteRequestsCSV(w, requests); err != nil {
		return 0, err
	}
	return len(requests), nil
}

// WriteRequestsCSV renders requests with a header row. Fields containing the
// separator or quotes are quoted.
func WriteRequestsCSV(w io.Writer, requests []domain.Request) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range requests {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.Title,
			r.Description,
			strconv.FormatInt(r.CategoryID, 10),
			string(r.Priority),
			strconv.FormatInt(r.StatusID, 10),
			strconv.FormatInt(r.CreatedByID, 10),
			formatOptionalID(r.AssignedToID),
			r.CreatedAt.UTC().Format(time.RFC3339),
			formatOptionalTime(r.ClosedAt),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatOptionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
