package receipts

import "github.com/taxgeo/backend/internal/infrastructure/clickhouse"

// OrganizationInfo is the relational dimension attached to receipt
// lines when the caller asks for organization details.
type OrganizationInfo struct {
	ID     int     `json:"id"`
	IinBin string  `json:"iin_bin"`
	NameRu *string `json:"name_ru"`
	NameKz *string `json:"name_kz"`
}

// EnrichedReceipt is a receipt line with its cash register and,
// optionally, the owning organization.
type EnrichedReceipt struct {
	clickhouse.ReceiptWithKkm
	Organization *OrganizationInfo `json:"organization,omitempty"`
}
