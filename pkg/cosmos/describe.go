package cosmos

import (
	"fmt"
	"strings"
)

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Describe generates the version report printed by the CLI.
func (v AppVersion) Describe() string {
	var sb strings.Builder

	sb.WriteString("=== COSMOS APP VERSION ===\n")
	sb.WriteString(fmt.Sprintf("    + Version:   %s\n", v))
	sb.WriteString(fmt.Sprintf("    + Test mode: %s\n", yesNo(v.TestMode)))
	sb.WriteString(fmt.Sprintf("    + Locked:    %s", yesNo(v.DeviceLocked)))

	return sb.String()
}

// Describe generates the address report. verified is nil when no local check
// was run.
func (a AddressResult) Describe(path HDPath, verified *bool) string {
	var sb strings.Builder

	sb.WriteString("=== COSMOS ADDRESS ===\n")
	sb.WriteString(fmt.Sprintf("    + Path:       %s\n", path))
	sb.WriteString(fmt.Sprintf("    + Public key: %X\n", a.PublicKey))
	sb.WriteString(fmt.Sprintf("    + Address:    %s", a.Address))

	if verified != nil {
		status := "[OK] derived address matches"
		if !*verified {
			status = "[FAIL] derived address differs"
		}
		sb.WriteString(fmt.Sprintf("\n    + Check:      %s", status))
	}

	return sb.String()
}

// Describe generates the signature report.
func (sig SignatureResult) Describe(path HDPath) string {
	var sb strings.Builder

	sb.WriteString("=== COSMOS SIGNATURE ===\n")
	sb.WriteString(fmt.Sprintf("    + Path:    %s\n", path))
	sb.WriteString(fmt.Sprintf("    + R:       %X\n", sig.R))
	sb.WriteString(fmt.Sprintf("    + S:       %X\n", sig.S))
	sb.WriteString(fmt.Sprintf("    + Compact: %X\n", sig.Bytes()))
	sb.WriteString(fmt.Sprintf("    + DER:     %X", sig.DER()))

	return sb.String()
}
