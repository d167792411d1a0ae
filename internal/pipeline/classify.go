package pipeline

import (
	"strings"

	"github.com/cqeops/triage-cli/internal/model"
)

// classifyRules map title keywords to failure categories. Rules are evaluated
// top to bottom against the upper-cased title; the first rule with any
// matching keyword wins and evaluation stops. The " CE " keyword carries its
// surrounding spaces so it only matches the standalone token, not ECC or CRC
// lookalikes inside words.
var classifyRules = []struct {
	keywords []string
	mode     model.FailureMode
}{
	{[]string{"OVERT"}, model.FailureThermal},
	{[]string{"SLD", "POWER"}, model.FailurePower},
	{[]string{"L2", "CACHE", "RMINIT"}, model.FailureSRAM},
	{[]string{"REMAP"}, model.FailureHBM},
	{[]string{"ECC", "UEC", " CE ", "DATA MISMATCH", "CRC", "DATA/BUFFER"}, model.FailureGeneralMem},
	{[]string{"SUDDEN DEATH", "SDC", "THERMAL"}, model.FailureThermal},
	{[]string{"XID"}, model.FailureCustomerXID},
	{[]string{"FALLING OFF"}, model.FailureFallingOff},
	{[]string{"DEVICE INTERRUPT", "INTERRUPT", "IST"}, model.FailureUnknown},
	{[]string{"PCIE"}, model.FailurePCIe},
}

// ClassifyTitle infers the failure mode from a reported title. Blank titles
// and titles matching no rule resolve to Unknown Cause Issue; this never
// fails.
func ClassifyTitle(title string) model.FailureMode {
	if strings.TrimSpace(title) == "" {
		return model.FailureUnknown
	}
	t := strings.ToUpper(title)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(t, kw) {
				return rule.mode
			}
		}
	}
	return model.FailureUnknown
}
