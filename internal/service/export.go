package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"agrovet-ledger/internal/clients"

	"github.com/xuri/excelize/v2"
)

const (
	exportSetKey    = "export_ids"
	exportTTL       = 20 * time.Minute
	exportChunkSize = 500
	exportURLTTL    = 48 * time.Hour
)

// ExportStatus tracks one report generation from request to download link.
type ExportStatus struct {
	Key         string    `json:"key"`
	Type        string    `json:"type"`
	RequestedBy int64     `json:"requested_by"`
	Filters     any       `json:"filters"`
	Progress    float64   `json:"progress"`
	FileURL     *string   `json:"file_url"`
	Error       string    `json:"error,omitempty"`
	Created     time.Time `json:"created_at"`
}

// ExportNotifier pushes export lifecycle events over the hub.
type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, subscriberID int64, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, subscriberID int64, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, subscriberID int64, exportID, errMsg string) error
}

type ExportService struct {
	debts    DebtRepository
	payments PaymentRepository
	redis    *clients.RedisClient
	storage  *clients.StorageClient
	s3       *clients.S3Client
	notifier ExportNotifier
}

func NewExportService(
	debts DebtRepository,
	payments PaymentRepository,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	notifier ExportNotifier,
) *ExportService {
	return &ExportService{
		debts:    debts,
		payments: payments,
		redis:    redis,
		storage:  storage,
		s3:       s3,
		notifier: notifier,
	}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

func (s *ExportService) GetExports(ctx context.Context) ([]ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue // expired entries linger in the set until their TTL
		}
		var st ExportStatus
		if err := json.Unmarshal([]byte(data), &st); err != nil {
			continue
		}
		statuses = append(statuses, st)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string) (ExportStatus, error) {
	if s.redis == nil {
		return ExportStatus{}, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return ExportStatus{}, errors.New("export not found")
	}

	var st ExportStatus
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return ExportStatus{}, fmt.Errorf("failed to parse export status: %w", err)
	}
	return st, nil
}

func (s *ExportService) reportProgress(ctx context.Context, st *ExportStatus, progress float64, stage string) {
	st.Progress = progress
	_ = s.saveStatus(ctx, st)
	if s.notifier != nil {
		_ = s.notifier.NotifyExportProgress(ctx, st.RequestedBy, st.Key, progress, stage)
	}
}

func (s *ExportService) fail(ctx context.Context, st *ExportStatus, err error) {
	st.Error = err.Error()
	_ = s.saveStatus(ctx, st)
	if s.notifier != nil {
		_ = s.notifier.NotifyExportFailed(ctx, st.RequestedBy, st.Key, st.Error)
	}
}

// finalize stores the finished workbook and resolves its download URL. The
// file always lands in local storage so /files can serve it; when S3 is
// configured the presigned S3 link wins.
func (s *ExportService) finalize(ctx context.Context, st *ExportStatus, fileName string, data []byte) {
	s.reportProgress(ctx, st, 95, "uploading")

	saved, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		s.fail(ctx, st, fmt.Errorf("failed to store export file: %w", err))
		return
	}
	url := s.storage.GetURL(saved)

	if s.s3 != nil {
		if key, err := s.s3.UploadXLSX(ctx, fileName, data); err == nil {
			if presigned, err := s.s3.GetTemporaryURL(ctx, key, exportURLTTL); err == nil {
				url = presigned
			}
		}
	}

	st.FileURL = &url
	s.reportProgress(ctx, st, 100, "ready")
	if s.notifier != nil {
		_ = s.notifier.NotifyExportComplete(ctx, st.RequestedBy, st.Key, url, fileName)
	}
}

func newWorkbook(sheet string, headers []string) *excelize.File {
	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheet)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	return f
}

// rowProgress maps row i of total to a percentage, holding back 100 until the
// file URL is actually ready.
func rowProgress(i, total int) float64 {
	p := float64(i+1) / float64(total) * 100.0
	if p >= 95 {
		p = 95
	}
	return float64(int(p))
}
