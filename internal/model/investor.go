// internal/model/investor.go
package model

type Investor struct {
    ID           string `db:"id" json:"id"`
    ListID       string `db:"list_id" json:"list_id"`
    Name         string `db:"name" json:"name"`
    PartnerEmail string `db:"partner_email" json:"partner_email"`
}
