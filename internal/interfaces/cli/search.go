package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/molexplorer/internal/application/explorer"
	"github.com/turtacn/molexplorer/internal/application/render"
	"github.com/turtacn/molexplorer/internal/domain/compound"
	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
)

type exploreOptions struct {
	style     string
	export    bool
	shareBase string
}

// compoundView is the printed result of search and random.
type compoundView struct {
	Query       string        `json:"query"`
	DisplayName string        `json:"display_name"`
	Info        explorer.Info `json:"info"`
	Style       string        `json:"style"`
	Atoms       int           `json:"atoms"`
	Bonds       int           `json:"bonds"`
	Export      string        `json:"export,omitempty"`
	ShareLink   string        `json:"share_link,omitempty"`
}

func (v compoundView) String() string {
	var sb strings.Builder
	bold := color.New(color.Bold)
	fmt.Fprintf(&sb, "\n%s\n", bold.Sprint(v.Info.CommonName))
	if v.Info.ShowIUPAC {
		fmt.Fprintf(&sb, "  %s\n", v.Info.IUPACName)
	}
	fmt.Fprintf(&sb, "  Formula:  %s\n", v.Info.Formula)
	fmt.Fprintf(&sb, "  Mass:     %s\n", v.Info.Mass)
	fmt.Fprintf(&sb, "  CID:      %s\n", v.Info.CID)
	fmt.Fprintf(&sb, "  Atoms:    %d\n", v.Atoms)
	fmt.Fprintf(&sb, "  Bonds:    %d\n", v.Bonds)
	fmt.Fprintf(&sb, "  Style:    %s\n", v.Style)
	if v.Export != "" {
		fmt.Fprintf(&sb, "  Saved to: %s\n", v.Export)
	}
	if v.ShareLink != "" {
		fmt.Fprintf(&sb, "  Share:    %s\n", v.ShareLink)
	}
	return sb.String()
}

func (v compoundView) TableHeaders() []string { return []string{"Field", "Value"} }

func (v compoundView) TableRows() [][]string {
	rows := [][]string{
		{"Name", v.Info.CommonName},
		{"IUPAC", v.Info.IUPACName},
		{"Formula", v.Info.Formula},
		{"Mass", v.Info.Mass},
		{"CID", v.Info.CID},
		{"Atoms", fmt.Sprint(v.Atoms)},
		{"Bonds", fmt.Sprint(v.Bonds)},
		{"Style", v.Style},
	}
	if v.Export != "" {
		rows = append(rows, []string{"Export", v.Export})
	}
	if v.ShareLink != "" {
		rows = append(rows, []string{"Share", v.ShareLink})
	}
	return rows
}

// NewSearchCmd resolves a compound and shows it.
func NewSearchCmd() *cobra.Command {
	opts := &exploreOptions{}
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Resolve a compound name against PubChem and show it",
		Long: "Resolve a compound by common name, synonym or IUPAC name. Multi-word names may\n" +
			"be given unquoted.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runExplore(cmd, opts, func(ctx context.Context, e *explorer.Explorer) (*explorer.Session, error) {
				return e.Search(ctx, query)
			})
		},
	}
	addExploreFlags(cmd, opts)
	return cmd
}

// NewRandomCmd loads a random sample compound.
func NewRandomCmd() *cobra.Command {
	opts := &exploreOptions{}
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Load a randomly chosen sample compound",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplore(cmd, opts, func(ctx context.Context, e *explorer.Explorer) (*explorer.Session, error) {
				return e.Random(ctx)
			})
		},
	}
	addExploreFlags(cmd, opts)
	return cmd
}

func addExploreFlags(cmd *cobra.Command, opts *exploreOptions) {
	cmd.Flags().StringVar(&opts.style, "style", "", "render style: stick, ballstick, sphere or wire (default from config)")
	cmd.Flags().BoolVar(&opts.export, "export", false, "save the structure file to the export store")
	cmd.Flags().StringVar(&opts.shareBase, "share-base", "", "print a share link built on this base URL")
}

func runExplore(cmd *cobra.Command, opts *exploreOptions, load func(context.Context, *explorer.Explorer) (*explorer.Session, error)) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	styleName := opts.style
	if styleName == "" {
		styleName = cliCtx.Config.Explorer.Style
	}
	style := render.DefaultStyle
	if styleName != "" {
		if style, err = render.ParseStyle(styleName); err != nil {
			return err
		}
	}

	a, err := cliCtx.App()
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	display := newTerminalDisplay(stderr)
	viewer := newTerminalViewer(stderr)
	e := explorer.New(a.Resolver, a.Engine, viewer, display,
		explorer.WithLogger(cliCtx.Logger),
		explorer.WithStyle(style))

	session, err := load(cmd.Context(), e)
	if err != nil {
		return reportedError{err}
	}

	view := compoundView{
		Query:       session.Query,
		DisplayName: session.DisplayName,
		Info:        display.Info(),
		Style:       render.Preset(style).Describe(),
		Atoms:       viewer.atoms,
		Bonds:       viewer.bonds,
	}
	if opts.export {
		loc, err := e.Download(cmd.Context(), a.Store)
		if err != nil {
			return reportedError{err}
		}
		view.Export = loc
	}
	if opts.shareBase != "" {
		link, err := e.ShareLink(opts.shareBase)
		if err != nil {
			return err
		}
		view.ShareLink = link
	}

	cliCtx.Logger.Debug("compound shown",
		logging.String("query", session.Query),
		logging.String("cid", session.CID.String()))
	return PrintResult(cmd, view)
}

// displayOrPlaceholder keeps empty table cells readable.
func displayOrPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return compound.Placeholder
	}
	return s
}
