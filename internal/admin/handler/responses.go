package handler

import (
	"time"

	"gatekeeper/internal/iplist"
	"gatekeeper/internal/record"
)

type directiveResponse struct {
	Address     string    `json:"address"`
	Disposition string    `json:"disposition"`
	Reason      string    `json:"reason,omitempty"`
	AddedBy     int64     `json:"added_by,omitempty"`
	AddedAt     time.Time `json:"added_at"`
}

func newDirectiveResponse(d iplist.Directive) directiveResponse {
	return directiveResponse{
		Address:     d.Address,
		Disposition: string(d.Disposition),
		Reason:      d.Reason,
		AddedBy:     d.AddedBy,
		AddedAt:     d.AddedAt,
	}
}

type recordResponse struct {
	PrincipalID      int64     `json:"principal_id"`
	CommunityID      int64     `json:"community_id,omitempty"`
	Status           string    `json:"status"`
	AnonymizerFlag   bool      `json:"anonymizer_flag"`
	AccountCreatedAt time.Time `json:"account_created_at"`
	CreatedAt        time.Time `json:"created_at"`
}

func newRecordResponses(records []record.Record) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, recordResponse{
			PrincipalID:      r.PrincipalID,
			CommunityID:      r.CommunityID,
			Status:           string(r.Status),
			AnonymizerFlag:   r.AnonymizerFlag,
			AccountCreatedAt: r.AccountCreatedAt,
			CreatedAt:        r.CreatedAt,
		})
	}
	return out
}

type lookupResponse struct {
	Address     string           `json:"address"`
	Disposition string           `json:"disposition"`
	Reason      string           `json:"reason,omitempty"`
	AddedBy     int64            `json:"added_by,omitempty"`
	Records     []recordResponse `json:"records"`
}

type issueTokenResponse struct {
	Token string `json:"token"`
	Link  string `json:"link"`
}
