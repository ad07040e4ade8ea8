package service

import (
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mramrohaleem/study/internal/dto"
	"github.com/mramrohaleem/study/internal/models"
	appErrors "github.com/mramrohaleem/study/pkg/errors"
	"github.com/mramrohaleem/study/pkg/storage"
)

func exportState() models.State {
	state := seededState()
	state.Calendar = append(state.Calendar,
		models.StudyDay{Date: "2026-03-03", IsRestDay: true},
		models.StudyDay{
			Date:              "2026-03-04",
			TargetMinutes:     20,
			TargetLectures:    models.PlannedLectures{{SubjectID: "s1", LectureID: "l1", Block: "revision-1", IsRevision: true}},
			CompletedLectures: models.PlannedLectures{{SubjectID: "s1", LectureID: "l1", Block: "revision-1", IsRevision: true}},
		},
	)
	return state
}

func newExportServiceForTest(t *testing.T, enabled bool) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	svc := NewExportService(&memoryStore{state: exportState()}, files, signer, ExportConfig{
		Enabled:    enabled,
		APIPrefix:  "/api/v1",
		RetryDelay: 5 * time.Millisecond,
	}, NewMetricsService(), nil, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)
	return svc
}

func waitForExport(t *testing.T, svc *ExportService, id string) *models.ExportJob {
	t.Helper()
	require.Eventually(t, func() bool {
		current, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		return current.Status == models.ExportStatusFinished || current.Status == models.ExportStatusFailed
	}, 5*time.Second, 10*time.Millisecond)
	job, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	return job
}

func TestBuildCalendarDataset(t *testing.T) {
	dataset := BuildCalendarDataset(exportState(), "2026-03-01", "2026-03-04", "")

	assert.Equal(t, "Study calendar 2026-03-01 to 2026-03-04", dataset.Title)
	require.Len(t, dataset.Rows, 3)
	assert.Equal(t, []string{"2026-03-02", "no", "Algebra", "Rings", "morning", "lecture", "no", "50", "0"}, dataset.Rows[0])
	assert.Equal(t, []string{"2026-03-03", "yes", "", "", "", "", "", "0", "0"}, dataset.Rows[1])
	assert.Equal(t, []string{"2026-03-04", "no", "Algebra", "Groups", "revision-1", "revision", "yes", "20", "0"}, dataset.Rows[2])

	filtered := BuildCalendarDataset(exportState(), "2026-03-01", "2026-03-04", "s1")
	assert.Equal(t, "Study calendar 2026-03-01 to 2026-03-04 (Algebra)", filtered.Title)
	assert.Len(t, filtered.Rows, 2, "days without the subject are skipped")
}

func TestExportServiceCreateAndDownload(t *testing.T) {
	for _, format := range []string{"csv", "pdf", "xlsx"} {
		t.Run(format, func(t *testing.T) {
			svc := newExportServiceForTest(t, true)
			ctx := context.Background()

			job, err := svc.Create(ctx, dto.ExportRequest{Format: format, From: "2026-03-01", To: "2026-03-07"})
			require.NoError(t, err)
			assert.Equal(t, models.ExportStatusQueued, job.Status)

			done := waitForExport(t, svc, job.ID)
			require.Equal(t, models.ExportStatusFinished, done.Status)
			require.NotNil(t, done.ResultURL)
			require.True(t, strings.HasPrefix(*done.ResultURL, "/api/v1/exports/download?token="))

			parsed, err := url.Parse(*done.ResultURL)
			require.NoError(t, err)
			file, err := svc.Download(ctx, parsed.Query().Get("token"))
			require.NoError(t, err)
			defer file.Content.Close()

			assert.True(t, strings.HasSuffix(file.Name, "."+format))
			assert.Equal(t, svc.renderers[format].ContentType(), file.ContentType)
			body, err := io.ReadAll(file.Content)
			require.NoError(t, err)
			assert.NotEmpty(t, body)
		})
	}
}

func TestExportServiceFailures(t *testing.T) {
	disabled := newExportServiceForTest(t, false)
	_, err := disabled.Create(context.Background(), dto.ExportRequest{Format: "csv", From: "2026-03-01", To: "2026-03-07"})
	requireCode(t, err, appErrors.ErrDisabled)

	svc := newExportServiceForTest(t, true)
	_, err = svc.Create(context.Background(), dto.ExportRequest{Format: "docx", From: "2026-03-01", To: "2026-03-07"})
	requireCode(t, err, appErrors.ErrValidation)
	_, err = svc.Create(context.Background(), dto.ExportRequest{Format: "csv", From: "2026-03-08", To: "2026-03-07"})
	requireCode(t, err, appErrors.ErrValidation)

	_, err = svc.Get(context.Background(), "missing")
	requireCode(t, err, appErrors.ErrNotFound)
	_, err = svc.Download(context.Background(), "not-a-token")
	requireCode(t, err, appErrors.ErrForbidden)
}
