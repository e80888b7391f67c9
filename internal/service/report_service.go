package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
	"github.com/campuskit/portal-api/pkg/export"
	"github.com/campuskit/portal-api/pkg/jobs"
	"github.com/campuskit/portal-api/pkg/storage"
)

const reportJobType = "report.generate"

type reportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id string) (*models.Report, error)
	UpdateStatus(ctx context.Context, id string, status models.ReportStatus, filePath, errorMessage *string, finishedAt *time.Time) error
}

type reportAttendanceSource interface {
	ListAll(ctx context.Context) ([]models.Attendance, error)
}

type reportResultSource interface {
	ListAll(ctx context.Context) ([]models.Result, error)
}

// reportObserver counts report jobs by type and outcome. *MetricsService
// satisfies it; a nil observer disables counting.
type reportObserver interface {
	ObserveReport(reportType, outcome string)
}

// CreateReportRequest asks for an asynchronous export of one dataset.
type CreateReportRequest struct {
	Type   models.ReportType   `json:"type" validate:"required"`
	Format models.ReportFormat `json:"format" validate:"required"`
}

// ReportDownload is an open report file ready to stream to the client.
type ReportDownload struct {
	File        *os.File
	FileName    string
	ContentType string
}

// ReportService generates attendance and result exports in the background.
// Requests are queued, a worker renders the file to local storage, and the
// finished report is fetched through a signed, expiring download token.
type ReportService struct {
	repo       reportRepository
	attendance reportAttendanceSource
	results    reportResultSource
	store      *storage.LocalStore
	signer     *storage.Signer
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	queue      *jobs.Queue
	metrics    reportObserver
	logger     *zap.Logger
}

// NewReportService constructs a ReportService and its worker queue. Call
// Start before accepting requests and Stop on shutdown.
func NewReportService(
	repo reportRepository,
	attendance reportAttendanceSource,
	results reportResultSource,
	store *storage.LocalStore,
	signer *storage.Signer,
	metrics reportObserver,
	logger *zap.Logger,
	opts jobs.Options,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		repo:       repo,
		attendance: attendance,
		results:    results,
		store:      store,
		signer:     signer,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		metrics:    metrics,
		logger:     logger,
	}
	opts.Logger = logger
	s.queue = jobs.NewQueue("reports", s.process, opts)
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and stops the workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Create persists a queued report row and schedules its generation.
func (s *ReportService) Create(ctx context.Context, createdBy string, req CreateReportRequest) (*models.Report, error) {
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "type must be attendance or results")
	}
	if !req.Format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		Type:      req.Type,
		Format:    req.Format,
		Status:    models.ReportStatusQueued,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report")
	}

	job := jobs.Job{ID: report.ID, Type: reportJobType, Payload: report.ID}
	if err := s.queue.Enqueue(job); err != nil {
		s.observeReport(report.Type, "failure")
		msg := "report queue is full"
		now := time.Now().UTC()
		if updateErr := s.repo.UpdateStatus(ctx, report.ID, models.ReportStatusFailed, nil, &msg, &now); updateErr != nil {
			s.logger.Error("failed to mark report failed", zap.Error(updateErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}

	s.logger.Info("report queued",
		zap.String("report_id", report.ID),
		zap.String("type", string(report.Type)),
		zap.String("format", string(report.Format)))
	return report, nil
}

// Get returns a report row by id.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch report")
	}
	return report, nil
}

// DownloadURL returns a signed token and its expiry for a finished report.
func (s *ReportService) DownloadURL(ctx context.Context, id string) (string, time.Time, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if report.Status != models.ReportStatusFinished || report.FilePath == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrConflict, "report is not ready for download")
	}
	token, expires, err := s.signer.Sign(report.ID, *report.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
	}
	return token, expires, nil
}

// Download verifies a signed token and opens the report file for streaming.
func (s *ReportService) Download(ctx context.Context, token string) (*ReportDownload, error) {
	reportID, relPath, err := s.signer.Verify(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid download token")
	}

	report, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.FilePath == nil || *report.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}

	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file not found")
	}

	contentType := "text/csv"
	if report.Format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	return &ReportDownload{
		File:        file,
		FileName:    fmt.Sprintf("%s-report.%s", report.Type, report.Format),
		ContentType: contentType,
	}, nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	reportID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	report, err := s.repo.FindByID(ctx, reportID)
	if err != nil {
		return fmt.Errorf("load report %s: %w", reportID, err)
	}

	if err := s.repo.UpdateStatus(ctx, report.ID, models.ReportStatusProcessing, nil, nil, nil); err != nil {
		return fmt.Errorf("mark report processing: %w", err)
	}

	data, err := s.buildDataset(ctx, report.Type)
	if err != nil {
		s.fail(ctx, report, err)
		return err
	}

	var rendered []byte
	switch report.Format {
	case models.ReportFormatCSV:
		rendered, err = s.csv.Render(*data)
	case models.ReportFormatPDF:
		rendered, err = s.pdf.Render(*data, fmt.Sprintf("%s report", report.Type))
	default:
		err = fmt.Errorf("unsupported format %q", report.Format)
	}
	if err != nil {
		s.fail(ctx, report, err)
		return err
	}

	fileName := fmt.Sprintf("%s-%s.%s", report.Type, report.ID, report.Format)
	relPath, err := s.store.Save(fileName, rendered)
	if err != nil {
		s.fail(ctx, report, err)
		return err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, report.ID, models.ReportStatusFinished, &relPath, nil, &now); err != nil {
		return fmt.Errorf("mark report finished: %w", err)
	}

	s.observeReport(report.Type, "success")
	s.logger.Info("report generated", zap.String("report_id", report.ID), zap.String("file", relPath))
	return nil
}

func (s *ReportService) buildDataset(ctx context.Context, reportType models.ReportType) (*export.Dataset, error) {
	switch reportType {
	case models.ReportTypeAttendance:
		records, err := s.attendance.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load attendance: %w", err)
		}
		data := &export.Dataset{Headers: []string{"Student ID", "Date", "Status"}}
		for _, rec := range records {
			data.Rows = append(data.Rows, []string{
				rec.StudentID,
				rec.Date.Format("2006-01-02"),
				string(rec.Status),
			})
		}
		return data, nil
	case models.ReportTypeResults:
		records, err := s.results.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load results: %w", err)
		}
		data := &export.Dataset{Headers: []string{"Student ID", "Subject", "Marks", "Max Marks", "Semester", "Status"}}
		for _, rec := range records {
			data.Rows = append(data.Rows, []string{
				rec.StudentID,
				rec.Subject,
				fmt.Sprintf("%g", rec.Marks),
				fmt.Sprintf("%g", rec.MaxMarks),
				fmt.Sprintf("%d", rec.Semester),
				string(rec.ResultStatus),
			})
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported report type %q", reportType)
}

func (s *ReportService) fail(ctx context.Context, report *models.Report, cause error) {
	s.observeReport(report.Type, "failure")
	msg := cause.Error()
	now := time.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, report.ID, models.ReportStatusFailed, nil, &msg, &now); err != nil {
		s.logger.Error("failed to mark report failed", zap.String("report_id", report.ID), zap.Error(err))
	}
}

func (s *ReportService) observeReport(reportType models.ReportType, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveReport(string(reportType), outcome)
	}
}
