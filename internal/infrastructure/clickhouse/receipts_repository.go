package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/taxgeo/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// KkmRow mirrors the relational KKM dimension on the ClickHouse side
type KkmRow struct {
	ID             int64  `ch:"id" json:"id"`
	OrganizationID int64  `ch:"organization_id" json:"organization_id"`
	RegNumber      string `ch:"reg_number" json:"reg_number"`
	SerialNumber   string `ch:"serial_number" json:"serial_number"`
}

// ReceiptRow is one receipt line from testr
type ReceiptRow struct {
	ID            int64     `ch:"id" json:"id"`
	KkmID         int64     `ch:"kkms_id" json:"kkm_id"`
	FiskalSign    string    `ch:"fiskal_sign" json:"fiskal_sign"`
	ItemName      string    `ch:"item_name" json:"item_name"`
	ItemPrice     float64   `ch:"item_price" json:"item_price"`
	ItemCount     float64   `ch:"item_count" json:"item_count"`
	TotalSum      float64   `ch:"total_sum" json:"total_sum"`
	OperationDate time.Time `ch:"operation_date" json:"operation_date"`
}

// ReceiptWithKkm is a receipt line joined to its cash register. The
// query aliases the kkm columns with a kkm_ prefix; here they project
// into the nested struct.
type ReceiptWithKkm struct {
	ReceiptRow
	Kkm KkmRow `json:"kkm"`
}

// receiptWithKkmScan is the flat scan target for the joined query
type receiptWithKkmScan struct {
	ID                int64     `ch:"id"`
	KkmID             int64     `ch:"kkms_id"`
	FiskalSign        string    `ch:"fiskal_sign"`
	ItemName          string    `ch:"item_name"`
	ItemPrice         float64   `ch:"item_price"`
	ItemCount         float64   `ch:"item_count"`
	TotalSum          float64   `ch:"total_sum"`
	OperationDate     time.Time `ch:"operation_date"`
	KkmRowID          int64     `ch:"kkm_id"`
	KkmOrganizationID int64     `ch:"kkm_organization_id"`
	KkmRegNumber      string    `ch:"kkm_reg_number"`
	KkmSerialNumber   string    `ch:"kkm_serial_number"`
}

func (s receiptWithKkmScan) nest() ReceiptWithKkm {
	return ReceiptWithKkm{
		ReceiptRow: ReceiptRow{
			ID:            s.ID,
			KkmID:         s.KkmID,
			FiskalSign:    s.FiskalSign,
			ItemName:      s.ItemName,
			ItemPrice:     s.ItemPrice,
			ItemCount:     s.ItemCount,
			TotalSum:      s.TotalSum,
			OperationDate: s.OperationDate,
		},
		Kkm: KkmRow{
			ID:             s.KkmRowID,
			OrganizationID: s.KkmOrganizationID,
			RegNumber:      s.KkmRegNumber,
			SerialNumber:   s.KkmSerialNumber,
		},
	}
}

// StatDayRow is one day of the per-KKM rollup
type StatDayRow struct {
	KkmID      int64     `ch:"kkms_id" json:"kkm_id"`
	Date       time.Time `ch:"date_" json:"date_"`
	CheckSum   float64   `ch:"check_sum" json:"check_sum"`
	CheckCount uint64    `ch:"check_count" json:"check_count"`
}

// StatYearRow is one year of the per-KKM rollup
type StatYearRow struct {
	KkmID      int64   `ch:"kkms_id" json:"kkm_id"`
	Year       uint16  `ch:"year_" json:"year"`
	CheckSum   float64 `ch:"check_sum" json:"check_sum"`
	CheckCount uint64  `ch:"check_count" json:"check_count"`
}

const joinedReceiptColumns = `
	t.id AS id, t.kkms_id AS kkms_id, t.fiskal_sign AS fiskal_sign,
	t.item_name AS item_name, t.item_price AS item_price,
	t.item_count AS item_count, t.total_sum AS total_sum,
	t.operation_date AS operation_date,
	k.id AS kkm_id, k.organization_id AS kkm_organization_id,
	k.reg_number AS kkm_reg_number, k.serial_number AS kkm_serial_number`

// ReceiptsRepository runs the analytical receipt queries. Everything is
// parameterized; user data never reaches the SQL text.
type ReceiptsRepository struct {
	client *Client
	log    *zap.Logger
}

// NewReceiptsRepository creates a receipts repository
func NewReceiptsRepository(client *Client, log *zap.Logger) *ReceiptsRepository {
	return &ReceiptsRepository{client: client, log: log}
}

func (r *ReceiptsRepository) kkms(ctx context.Context, predicate string, args ...any) ([]KkmRow, error) {
	conn, err := r.client.Conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT id, organization_id, reg_number, serial_number FROM kkms WHERE %s", predicate)
	var rows []KkmRow
	if err := conn.Select(ctx, &rows, query, args...); err != nil {
		return nil, r.backendError("kkms lookup", err)
	}
	return rows, nil
}

// KkmsByID returns the dimension row for one cash register
func (r *ReceiptsRepository) KkmsByID(ctx context.Context, id int64) ([]KkmRow, error) {
	return r.kkms(ctx, "id = ?", id)
}

// KkmsByOrganization returns every cash register of an organization
func (r *ReceiptsRepository) KkmsByOrganization(ctx context.Context, organizationID int64) ([]KkmRow, error) {
	return r.kkms(ctx, "organization_id = ?", organizationID)
}

// KkmsByRegNumber finds cash registers by registration number
func (r *ReceiptsRepository) KkmsByRegNumber(ctx context.Context, regNumber string) ([]KkmRow, error) {
	return r.kkms(ctx, "reg_number = ?", regNumber)
}

// KkmsBySerialNumber finds cash registers by serial number
func (r *ReceiptsRepository) KkmsBySerialNumber(ctx context.Context, serialNumber string) ([]KkmRow, error) {
	return r.kkms(ctx, "serial_number = ?", serialNumber)
}

// ReceiptsByKkmID returns the latest receipt lines of one cash register
func (r *ReceiptsRepository) ReceiptsByKkmID(ctx context.Context, kkmID int64, limit uint64) ([]ReceiptRow, error) {
	conn, err := r.client.Conn(ctx)
	if err != nil {
		return nil, err
	}
	query := `SELECT id, kkms_id, fiskal_sign, item_name, item_price, item_count, total_sum, operation_date
		FROM testr WHERE kkms_id = ? ORDER BY operation_date DESC LIMIT ?`
	var rows []ReceiptRow
	if err := conn.Select(ctx, &rows, query, kkmID, limit); err != nil {
		return nil, r.backendError("receipts by kkm", err)
	}
	return rows, nil
}

func (r *ReceiptsRepository) joinedReceipts(ctx context.Context, predicate string, limit uint64, args ...any) ([]ReceiptWithKkm, error) {
	conn, err := r.client.Conn(ctx)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s
		FROM testr t JOIN kkms k ON k.id = t.kkms_id
		WHERE %s
		ORDER BY t.operation_date DESC LIMIT ?`, joinedReceiptColumns, predicate)
	args = append(args, limit)

	var flat []receiptWithKkmScan
	if err := conn.Select(ctx, &flat, query, args...); err != nil {
		return nil, r.backendError("joined receipts", err)
	}
	rows := make([]ReceiptWithKkm, len(flat))
	for i, scan := range flat {
		rows[i] = scan.nest()
	}
	return rows, nil
}

// ReceiptsByOrganizationID joins testr to the kkms dimension and filters
// by the owning organization
func (r *ReceiptsRepository) ReceiptsByOrganizationID(ctx context.Context, organizationID int64, limit uint64) ([]ReceiptWithKkm, error) {
	return r.joinedReceipts(ctx, "k.organization_id = ?", limit, organizationID)
}

// ReceiptsByFiscalAndKkmRegNumbers finds receipts with a fiscal sign on
// any of the given registration numbers
func (r *ReceiptsRepository) ReceiptsByFiscalAndKkmRegNumbers(ctx context.Context, fiskalSign string, regNumbers []string, limit uint64) ([]ReceiptWithKkm, error) {
	if len(regNumbers) == 0 {
		return nil, nil
	}
	return r.joinedReceipts(ctx, "t.fiskal_sign = ? AND k.reg_number IN (?)", limit, fiskalSign, regNumbers)
}

// ReceiptsByFiscalAndKkmSerialNumbers is the serial-number variant of
// the fiscal-sign lookup
func (r *ReceiptsRepository) ReceiptsByFiscalAndKkmSerialNumbers(ctx context.Context, fiskalSign string, serialNumbers []string, limit uint64) ([]ReceiptWithKkm, error) {
	if len(serialNumbers) == 0 {
		return nil, nil
	}
	return r.joinedReceipts(ctx, "t.fiskal_sign = ? AND k.serial_number IN (?)", limit, fiskalSign, serialNumbers)
}

// StatDayByKkm returns the daily rollup of a cash register for a year
func (r *ReceiptsRepository) StatDayByKkm(ctx context.Context, kkmID int64, year int) ([]StatDayRow, error) {
	conn, err := r.client.Conn(ctx)
	if err != nil {
		return nil, err
	}
	query := `SELECT kkms_id, date_, check_sum, check_count
		FROM stat_day WHERE kkms_id = ? AND toYear(date_) = ? ORDER BY date_`
	var rows []StatDayRow
	if err := conn.Select(ctx, &rows, query, kkmID, year); err != nil {
		return nil, r.backendError("stat day", err)
	}
	return rows, nil
}

// StatYearByKkm returns the annual rollup of a cash register
func (r *ReceiptsRepository) StatYearByKkm(ctx context.Context, kkmID int64) ([]StatYearRow, error) {
	conn, err := r.client.Conn(ctx)
	if err != nil {
		return nil, err
	}
	query := `SELECT kkms_id, year_, check_sum, check_count
		FROM stat_year WHERE kkms_id = ? ORDER BY year_`
	var rows []StatYearRow
	if err := conn.Select(ctx, &rows, query, kkmID); err != nil {
		return nil, r.backendError("stat year", err)
	}
	return rows, nil
}

// KkmStats bundles both rollups of one cash register
type KkmStats struct {
	Daily  []StatDayRow  `json:"daily"`
	Annual []StatYearRow `json:"annual"`
}

// StatsByKkm returns the combined daily and annual rollups
func (r *ReceiptsRepository) StatsByKkm(ctx context.Context, kkmID int64, year int) (*KkmStats, error) {
	daily, err := r.StatDayByKkm(ctx, kkmID, year)
	if err != nil {
		return nil, err
	}
	annual, err := r.StatYearByKkm(ctx, kkmID)
	if err != nil {
		return nil, err
	}
	return &KkmStats{Daily: daily, Annual: annual}, nil
}

func (r *ReceiptsRepository) backendError(op string, err error) error {
	r.log.Error("clickhouse query failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", shared.ErrBackendFailure, op, err)
}
