package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"campdesk/internal/model"
	"campdesk/internal/repository"
)

// ── export errors ──

var (
	ErrExportGenerateFail = errors.New("failed to generate roster workbook")
)

// ExportService roster export
//
// The workbook has one sheet per gender. Each occupant is one row under its
// room; empty active rooms get a single row so free capacity stays visible.
type ExportService interface {
	// ExportRoster returns the xlsx content and a suggested file name
	ExportRoster(ctx context.Context, gender string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger, now: time.Now}
}

var rosterHeader = []string{"Room", "Capacity", "Occupancy", "Active", "Occupant", "Phone", "Mode", "Allocated At"}

// ═══════════════════════════════════════════════════════════
// ExportRoster
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRoster(ctx context.Context, gender string) (*bytes.Buffer, string, error) {
	g := model.GenderAll
	if gender != "" {
		parsed, ok := model.ParseGender(gender)
		if !ok {
			return nil, "", ErrInvalidGender
		}
		g = parsed
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, part := range g.Expand() {
		rooms, err := s.repo.Room.List(ctx, part, true)
		if err != nil {
			s.logger.Error("list rooms for export failed", zap.Error(err))
			return nil, "", err
		}
		allocs, err := s.repo.Allocation.ListByRooms(ctx, roomIDs(rooms))
		if err != nil {
			s.logger.Error("list allocations for export failed", zap.Error(err))
			return nil, "", err
		}
		byRoom := make(map[string][]model.Allocation, len(rooms))
		for _, a := range allocs {
			byRoom[a.RoomID] = append(byRoom[a.RoomID], a)
		}

		sheet := string(part)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, "", ErrExportGenerateFail
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, "", ErrExportGenerateFail
		}

		for col, title := range rosterHeader {
			f.SetCellValue(sheet, cell(colName(col), 1), title)
		}
		f.SetCellStyle(sheet, "A1", cell(colName(len(rosterHeader)-1), 1), headerStyle)
		f.SetColWidth(sheet, "A", "A", 18)
		f.SetColWidth(sheet, "E", "E", 28)
		f.SetColWidth(sheet, "F", "F", 16)
		f.SetColWidth(sheet, "H", "H", 22)

		row := 2
		for _, r := range rooms {
			occupants := byRoom[r.RoomID]
			if len(occupants) == 0 {
				writeRosterRow(f, sheet, row, r, 0, nil)
				row++
				continue
			}
			for j := range occupants {
				writeRosterRow(f, sheet, row, r, len(occupants), &occupants[j])
				row++
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write roster workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("roster_%s_%s.xlsx", g, s.now().UTC().Format("20060102"))
	return buf, filename, nil
}

func writeRosterRow(f *excelize.File, sheet string, row int, r model.Room, occupancy int, a *model.Allocation) {
	active := "yes"
	if !r.IsActive {
		active = "no"
	}
	f.SetCellValue(sheet, cell("A", row), r.Name)
	f.SetCellValue(sheet, cell("B", row), r.Capacity)
	f.SetCellValue(sheet, cell("C", row), occupancy)
	f.SetCellValue(sheet, cell("D", row), active)
	if a == nil {
		f.SetCellValue(sheet, cell("E", row), "-")
		return
	}
	if a.Registration != nil {
		f.SetCellValue(sheet, cell("E", row), a.Registration.FullName)
		f.SetCellValue(sheet, cell("F", row), a.Registration.Phone)
	}
	f.SetCellValue(sheet, cell("G", row), a.Mode)
	f.SetCellValue(sheet, cell("H", row), formatTime(a.CreatedAt))
}

// ── helpers ──

// colName zero-based column index to letters
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
