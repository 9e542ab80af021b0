package anonymizer

import "strings"

// suspectKeywords are brand and infrastructure fragments matched as substrings
// against lower-cased reverse-DNS names and ASN organization names. The list
// deliberately conflates hosting providers with anonymizers: a residential
// proxy on a cloud box and a corporate NAT egress both look alike from here.
// Known precision/recall tradeoff, not a bug.
var suspectKeywords = []string{
	"digitalocean", "linode", "ovh", "hetzner", "amazon", "amazonaws", "aws",
	"google", "microsoft", "azure", "cloud", "vultr", "scaleway", "ibm", "oracle",
	"host", "server", "vps", "datacenter", "proxy", "vpn", "anonymizer",
	"proxyserver", "fastly", "cloudflare", "akamai", "edgecast",
	"hurricane", "leaseweb", "softlayer", "contabo", "upcloud", "tencent",
	"aliyun", "gcore", "netcup", "nforce", "keystone", "packet",
	"exoscale", "virmach", "buyvm", "turnkey", "nordvpn", "expressvpn",
	"surfshark", "cyberghost", "privateinternetaccess", "ipvanish",
	"proton", "protonvpn",
}

// matchKeyword returns the first suspect keyword contained in s (already
// lower-cased by callers), or "" when none matches.
func matchKeyword(s string) string {
	for _, kw := range suspectKeywords {
		if strings.Contains(s, kw) {
			return kw
		}
	}
	return ""
}
