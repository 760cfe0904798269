// Package cli — list.go implements the "treetab list" command.
//
// The list command joins two views of the same working directories: the
// worktrees git reports for the current repository, and the iTerm2
// sessions currently open in them. The join is a string-equality match
// over canonicalized paths, computed fresh on every invocation.
//
// Output is a styled text table by default, or a JSON array with --json.
// --no-tabs skips the iTerm2 query entirely (useful over SSH or in
// scripts that only care about git state).
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/treetab/internal/iterm"
	"github.com/mmr-tortoise/treetab/internal/model"
	"github.com/mmr-tortoise/treetab/internal/worktree"
)

// listFlags holds the flag values for the list command.
type listFlags struct {
	// noTabs skips the iTerm2 session query; every worktree then
	// reports hasTab=false.
	noTabs bool
}

// NewListCommand creates the "list" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewListCommand() *cobra.Command {
	flags := &listFlags{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List worktrees and their iTerm2 tabs",
		Long: `List all worktrees of the current repository, joined with the iTerm2
tabs currently open in them.

Each worktree is shown with its branch, clean/dirty state, ahead/behind
counts against its upstream, and whether an iTerm2 tab is open in it.

Examples:
  treetab list
  treetab list --json
  treetab list --no-tabs`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(flags)
		},
	}

	cmd.Flags().BoolVar(&flags.noTabs, "no-tabs", false, "Skip the iTerm2 tab query")

	return cmd
}

// runList is the main logic function for the list command.
func runList(flags *listFlags) error {
	// Step 1: Locate the repository and list its worktrees.
	wm := worktree.NewManager()
	repoRoot, err := repoContext(wm)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(repoRoot)
	if err != nil {
		return err
	}

	worktrees, err := wm.List(repoRoot)
	if err != nil {
		return err
	}
	VerboseLog("Found %d worktree(s)", len(worktrees))

	// Step 2: Annotate each worktree with dirty state and ahead/behind
	// counts. A failing status query downgrades to zero values rather
	// than aborting the whole listing.
	for i := range worktrees {
		wt := &worktrees[i]
		if wt.IsBare {
			continue
		}

		dirty, dirtyErr := wm.IsDirty(wt.Path)
		if dirtyErr != nil {
			VerboseLog("Warning: status check failed for %s: %v", wt.Path, dirtyErr)
		} else {
			wt.Dirty = dirty
		}

		ahead, behind, abErr := wm.AheadBehind(wt.Path)
		if abErr != nil {
			VerboseLog("Warning: ahead/behind check failed for %s: %v", wt.Path, abErr)
		} else {
			wt.Ahead = ahead
			wt.Behind = behind
		}
	}

	// Step 3: Query iTerm2 sessions, unless skipped. A failed query
	// (iTerm2 not running, non-macOS host) degrades to "no tabs open".
	var tabs []model.TerminalTab
	if !flags.noTabs {
		tabs, err = iterm.NewAutomator().Tabs()
		if err != nil {
			VerboseLog("Warning: could not query iTerm2 tabs: %v", err)
			tabs = nil
		}
	}
	VerboseLog("Found %d open tab(s)", len(tabs))

	// Step 4: Join worktrees with tabs on canonicalized paths.
	markOpenTabs(worktrees, tabs)

	// Step 5: Output results.
	if IsJSONOutput() {
		printListJSON(worktrees)
	} else {
		color := cfg.ColorEnabled(isatty.IsTerminal(os.Stdout.Fd()))
		printListText(os.Stdout, worktrees, color)
	}
	return nil
}

// markOpenTabs sets HasTab on every worktree whose path matches an open
// session's working directory. Both sides are already canonicalized, so
// the join is a plain string-equality set lookup.
func markOpenTabs(worktrees []model.Worktree, tabs []model.TerminalTab) {
	if len(tabs) == 0 {
		return
	}

	tabPaths := make(map[string]bool, len(tabs))
	for _, tab := range tabs {
		tabPaths[tab.Path] = true
	}

	for i := range worktrees {
		worktrees[i].HasTab = tabPaths[worktrees[i].Path]
	}
}

// printListJSON outputs the worktrees as a JSON array, mirroring the
// model.Worktree field tags.
func printListJSON(worktrees []model.Worktree) {
	// An empty repository still prints [] rather than null.
	if worktrees == nil {
		worktrees = []model.Worktree{}
	}
	data, _ := json.MarshalIndent(worktrees, "", "  ")
	fmt.Println(string(data))
}

// listStyles holds the lipgloss styles for the text table. When color
// is false every style is the zero style, which renders plain text —
// the table layout is identical either way.
type listStyles struct {
	header lipgloss.Style
	branch lipgloss.Style
	dirty  lipgloss.Style
	clean  lipgloss.Style
	tab    lipgloss.Style
	dim    lipgloss.Style
}

// newListStyles builds the style set. The color argument is the
// config's color setting resolved against TTY detection.
func newListStyles(color bool) listStyles {
	if !color {
		return listStyles{}
	}
	return listStyles{
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("243")),
		branch: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		dirty:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		clean:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		tab:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// printListText outputs the worktree list as a human-readable table.
//
// The table format is:
//
//	BRANCH          STATUS  SYNC   TAB   PATH
//	main            clean   -      open  ~/dev/repo
//	feature/auth    dirty   ↑2 ↓1  -     ~/dev/feature-auth
//
// Cells are padded before styling so ANSI escape sequences never skew
// the column alignment.
func printListText(w io.Writer, worktrees []model.Worktree, color bool) {
	if len(worktrees) == 0 {
		fmt.Fprintln(w, "No worktrees found.")
		return
	}

	styles := newListStyles(color)

	branchWidth := len("BRANCH")
	for _, wt := range worktrees {
		if l := lipgloss.Width(wt.DisplayBranch()); l > branchWidth {
			branchWidth = l
		}
	}
	syncWidth := len("SYNC")
	for _, wt := range worktrees {
		if l := lipgloss.Width(syncLabel(&wt)); l > syncWidth {
			syncWidth = l
		}
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		styles.header.Render(pad("BRANCH", branchWidth)),
		styles.header.Render(pad("STATUS", 6)),
		styles.header.Render(pad("SYNC", syncWidth)),
		styles.header.Render(pad("TAB", 4)),
		styles.header.Render("PATH"),
	)

	for i := range worktrees {
		wt := &worktrees[i]

		status := statusLabel(wt)
		statusStyle := styles.clean
		if wt.Dirty {
			statusStyle = styles.dirty
		}

		tabCell := styles.dim.Render(pad("-", 4))
		if wt.HasTab {
			tabCell = styles.tab.Render(pad("open", 4))
		}

		fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
			styles.branch.Render(pad(wt.DisplayBranch(), branchWidth)),
			statusStyle.Render(pad(status, 6)),
			pad(syncLabel(wt), syncWidth),
			tabCell,
			styles.dim.Render(model.HomeRelative(wt.Path)),
		)
	}
}

// pad right-pads a cell to the given display width with spaces.
// lipgloss.Width measures terminal cells, so the sync column's arrow
// glyphs do not skew alignment the way byte length would.
func pad(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// statusLabel renders the clean/dirty cell. Bare entries have no
// working tree to be dirty.
func statusLabel(wt *model.Worktree) string {
	if wt.IsBare {
		return "-"
	}
	if wt.Dirty {
		return "dirty"
	}
	return "clean"
}

// syncLabel renders the ahead/behind cell: "-" when in sync or without
// an upstream, otherwise arrows with counts ("↑2 ↓1").
func syncLabel(wt *model.Worktree) string {
	if wt.Ahead == 0 && wt.Behind == 0 {
		return "-"
	}
	var parts []string
	if wt.Ahead > 0 {
		parts = append(parts, fmt.Sprintf("↑%d", wt.Ahead))
	}
	if wt.Behind > 0 {
		parts = append(parts, fmt.Sprintf("↓%d", wt.Behind))
	}
	return strings.Join(parts, " ")
}
