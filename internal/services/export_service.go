// internal/services/export_service.go
package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pigmarket/pigmarket-backend/internal/models"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	ordersSheet = "Completed Orders"
	monthsSheet = "Monthly Sales"
	breedsSheet = "Top Breeds"
)

type ExportService struct {
	adminService *AdminService
	now          func() time.Time
}

func NewExportService(adminService *AdminService) *ExportService {
	return &ExportService{
		adminService: adminService,
		now:          time.Now,
	}
}

// TrackingWorkbook builds every completed order plus the monthly and breed
// summaries as an in-memory xlsx workbook and suggests a file name for it.
// Nothing is written to disk; the caller streams and closes the workbook.
func (s *ExportService) TrackingWorkbook() (*excelize.File, string, error) {
	orders, err := s.adminService.CompletedOrders()
	if err != nil {
		return nil, "", err
	}
	records, err := s.adminService.GetTrackingRecords()
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	if err := fillTrackingWorkbook(f, orders, records); err != nil {
		_ = f.Close()
		return nil, "", err
	}
	return f, fmt.Sprintf("tracking_records_%s.xlsx", s.now().Format("2006-01-02_15-04-05")), nil
}

func fillTrackingWorkbook(f *excelize.File, orders []models.Reservation, records *TrackingRecords) error {
	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	header, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	writeOrders(f, orders, header)

	if _, err := f.NewSheet(monthsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	writeRows(f, monthsSheet, header, []string{"Month", "Orders", "Revenue"}, len(records.MonthlyData), func(i int) []interface{} {
		m := records.MonthlyData[i]
		return []interface{}{m.Month, m.Orders, m.Revenue.InexactFloat64()}
	})

	if _, err := f.NewSheet(breedsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	writeRows(f, breedsSheet, header, []string{"Breed", "Sold", "Revenue"}, len(records.BreedSales), func(i int) []interface{} {
		b := records.BreedSales[i]
		return []interface{}{b.Breed, b.TotalSold, b.TotalRevenue.InexactFloat64()}
	})

	return f.DeleteSheet("Sheet1")
}

func writeOrders(f *excelize.File, orders []models.Reservation, header int) {
	headers := []string{
		"Order Date", "Customer", "Contact", "Breed", "Price", "Down Payment",
		"Delivery", "Payment", "Pickup Date", "Order Type",
	}
	writeRows(f, ordersSheet, header, headers, len(orders), func(i int) []interface{} {
		r := orders[i]
		pickup := ""
		if r.PickupDate != nil {
			pickup = r.PickupDate.Format("2006-01-02")
		}
		return []interface{}{
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Fullname,
			r.ContactNumber,
			string(r.Pig.Breed),
			r.Pig.Price.InexactFloat64(),
			r.DownPayment.InexactFloat64(),
			string(r.DeliveryOption),
			string(r.PaymentMethod),
			pickup,
			string(r.OrderType),
		}
	})
	_ = f.SetColWidth(ordersSheet, "A", "J", 18)
}

func writeRows(f *excelize.File, sheet string, headerStyle int, headers []string, n int, row func(int) []interface{}) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	for i := 0; i < n; i++ {
		for j, v := range row(i) {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
}
