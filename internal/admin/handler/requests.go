package handler

import (
	"net/http"

	"gatekeeper/internal/iplist"
	"gatekeeper/pkg/platform/httputil"
)

type setDirectiveRequest struct {
	Address     string `json:"address"`
	Disposition string `json:"disposition"`
	Reason      string `json:"reason"`
}

// validate rejects malformed input before it reaches the service, so service
// errors can be treated uniformly as storage faults.
func (r setDirectiveRequest) validate() error {
	if _, err := iplist.Canonicalize(r.Address); err != nil {
		return httputil.NewError(http.StatusBadRequest, "invalid_address", "address must be an IPv4 or IPv6 literal")
	}
	d := iplist.Disposition(r.Disposition)
	if d != iplist.DispositionAllow && d != iplist.DispositionDeny {
		return httputil.NewError(http.StatusBadRequest, "invalid_disposition", "disposition must be allow or deny")
	}
	return nil
}

type issueTokenRequest struct {
	PrincipalID int64 `json:"principal_id"`
	CommunityID int64 `json:"community_id"`
}
