package explorer

import (
	"strings"

	"github.com/turtacn/molexplorer/internal/application/resolver"
	"github.com/turtacn/molexplorer/internal/domain/compound"
)

// Status lines shown while searching.
const (
	StatusReady            = "Ready to explore molecules"
	StatusSearching        = "Searching PubChem..."
	StatusLoadingProps     = "Loading properties..."
	StatusLoadingStructure = "Loading 3D structure..."
	statusLoadedFmt        = "Loaded: %s"
)

// Toast messages.
const (
	msgLoadedFmt      = "Successfully loaded %s"
	msgCleared        = "Viewer cleared"
	msgViewReset      = "View reset"
	msgDownloaded     = "SDF file downloaded"
	msgNothingToShare = "No compound loaded to share"
)

// IUPACUnavailable stands in for a missing IUPAC name in the info panel.
const IUPACUnavailable = "Not available"

// Severity of a Toast.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Toast is a transient notification.
type Toast struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Info is the content of the compound info panel.
type Info struct {
	CommonName string `json:"common_name"`
	IUPACName  string `json:"iupac_name"`
	Formula    string `json:"formula"`
	Mass       string `json:"mass"`
	CID        string `json:"cid"`
	// ShowIUPAC is set when the IUPAC name differs from the common name and
	// should be shown under it.
	ShowIUPAC bool `json:"show_iupac"`
}

// Display receives everything the explorer wants shown.
type Display interface {
	SetStatus(status string)
	ShowCompound(info Info)
	Notify(toast Toast)
	SetLoading(loading bool)
}

// InfoFor builds the info panel for a resolved compound.
func InfoFor(res *resolver.Result) Info {
	iupac := strings.TrimSpace(res.Properties.IUPACName)
	info := Info{
		CommonName: res.CommonName,
		IUPACName:  iupac,
		Formula:    compound.FormatFormula(res.Properties.MolecularFormula),
		Mass:       compound.FormatMass(res.Properties.MolecularWeight),
		CID:        res.CID.String(),
	}
	switch {
	case info.CommonName == "" && iupac != "":
		info.CommonName = iupac
	case info.CommonName == "":
		info.CommonName = res.Query
	}
	if iupac == "" {
		info.IUPACName = IUPACUnavailable
	} else if !strings.EqualFold(info.CommonName, iupac) {
		info.ShowIUPAC = true
	}
	return info
}

// EmptyInfo is the info panel with nothing loaded.
func EmptyInfo() Info {
	return Info{
		CommonName: compound.Placeholder,
		IUPACName:  compound.Placeholder,
		Formula:    compound.Placeholder,
		Mass:       compound.Placeholder,
		CID:        compound.Placeholder,
	}
}

func toastFor(n resolver.Notice) Toast {
	sev := SeverityWarning
	if n.Severity == resolver.SeverityInfo {
		sev = SeverityInfo
	}
	return Toast{Severity: sev, Message: n.Message}
}

type nopDisplay struct{}

func (nopDisplay) SetStatus(string)  {}
func (nopDisplay) ShowCompound(Info) {}
func (nopDisplay) Notify(Toast)      {}
func (nopDisplay) SetLoading(bool)   {}
