package cli

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/application/suggest"
	"github.com/turtacn/molexplorer/internal/domain/compound"
)

// suggestionList is the printed result of suggest.
type suggestionList struct {
	Query       string                `json:"query"`
	Suggestions []compound.Suggestion `json:"suggestions"`
}

func (l suggestionList) String() string {
	if len(l.Suggestions) == 0 {
		return fmt.Sprintf("No suggestions for %q\n", l.Query)
	}
	var sb strings.Builder
	for _, s := range l.Suggestions {
		sb.WriteString(s.Label())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (l suggestionList) TableHeaders() []string {
	return []string{"#", "Suggestion", "Match", "Matched Text", "Distance"}
}

func (l suggestionList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Suggestions))
	for i, s := range l.Suggestions {
		distance := ""
		if s.Provenance == compound.ProvenanceFuzzy {
			distance = fmt.Sprint(s.Distance)
		}
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			s.Text,
			string(s.Provenance),
			displayOrPlaceholder(s.HighlightSource),
			displayOrPlaceholder(distance),
		})
	}
	return rows
}

// NewSuggestCmd prints the ranked suggestions for partial input. It needs no
// network access.
func NewSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <partial>",
		Short: "Show autocomplete suggestions for partial input",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			input := strings.Join(args, " ")
			engine := suggest.NewEngine(nil, nil, cliCtx.Config.Suggest)
			items := engine.Suggest(input)
			if items == nil {
				items = []compound.Suggestion{}
			}
			return PrintResult(cmd, suggestionList{Query: input, Suggestions: items})
		},
	}
}

type styleRow struct {
	Name    render.Style     `json:"name"`
	Summary string           `json:"summary"`
	Spec    render.StyleSpec `json:"spec"`
}

// styleList is the printed result of styles.
type styleList struct {
	Default    render.Style       `json:"default"`
	Styles     []styleRow         `json:"styles"`
	Colors     render.ColorScheme `json:"colors"`
	Fallback   string             `json:"default_color"`
	Background string             `json:"background"`
}

func (l styleList) String() string {
	var sb strings.Builder
	sb.WriteString("Styles:\n")
	for _, s := range l.Styles {
		marker := " "
		if s.Name == l.Default {
			marker = "*"
		}
		fmt.Fprintf(&sb, " %s %-10s %s\n", marker, s.Name, s.Summary)
	}
	sb.WriteString("Colors:\n")
	for _, el := range l.Colors.Elements() {
		fmt.Fprintf(&sb, "   %-3s %s\n", el, l.Colors[el])
	}
	fmt.Fprintf(&sb, "   other %s\n", l.Fallback)
	return sb.String()
}

func (l styleList) TableHeaders() []string { return []string{"Style", "Spec", "Default"} }

func (l styleList) TableRows() [][]string {
	rows := make([][]string, 0, len(l.Styles))
	for _, s := range l.Styles {
		def := ""
		if s.Name == l.Default {
			def = "yes"
		}
		rows = append(rows, []string{string(s.Name), s.Summary, def})
	}
	return rows
}

func newStyleList() styleList {
	l := styleList{
		Default:    render.DefaultStyle,
		Colors:     render.DefaultColorScheme(),
		Fallback:   render.DefaultColor,
		Background: render.BackgroundColor,
	}
	for _, st := range render.Styles() {
		spec := render.Preset(st)
		l.Styles = append(l.Styles, styleRow{Name: st, Summary: spec.Describe(), Spec: spec})
	}
	return l
}

// NewStylesCmd prints the style presets and the color scheme.
func NewStylesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "styles",
		Short: "List render styles and the element color scheme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, newStyleList())
		},
	}
}

// BuildInfo is the printed result of version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("molexplorer %s (commit: %s, built: %s, %s)\n", b.Version, b.Commit, b.BuildDate, b.GoVersion)
}

// NewVersionCmd prints the build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, BuildInfo{
				Version:   Version,
				Commit:    GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			})
		},
	}
}
