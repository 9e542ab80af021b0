package anonymizer

import "encoding/json"

// Evidence records what the detector saw: which checks fired and the raw
// observations behind them. It is attached to audit entries on rejection.
type Evidence struct {
	// Checks lists positive signals in evaluation order, e.g.
	// "exit_relay", "rdns_match:ovh", "asn_org_match:nordvpn",
	// "reputation_block".
	Checks []string `json:"checks,omitempty"`

	ReverseDNS string `json:"rdns,omitempty"`
	ASN        uint   `json:"asn,omitempty"`
	ASNOrg     string `json:"asn_org,omitempty"`

	// Reputation holds the raw third-party API response, when queried.
	Reputation json.RawMessage `json:"reputation,omitempty"`
}

// Empty reports whether the evaluation produced no observations at all.
func (e Evidence) Empty() bool {
	return len(e.Checks) == 0 && e.ReverseDNS == "" && e.ASN == 0 &&
		e.ASNOrg == "" && len(e.Reputation) == 0
}

// String renders the evidence for logs and audit entries.
func (e Evidence) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}
