package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/settings"
	"github.com/jack-x/worklog/cmd/worklog/cli/state"
)

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects known to the session store",
		RunE: func(_ *cobra.Command, _ []string) error {
			s, err := settings.Load()
			if err != nil {
				return err
			}
			store := claudecode.NewStore(s.SessionPaths.ClaudeCode)

			projects, err := store.ListProjects()
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Printf("No projects found under %s\n", store.Base)
				return nil
			}

			batchState, err := state.Load()
			if err != nil {
				return err
			}
			marks := batchState.Marks()

			for _, project := range projects {
				index, err := store.ReadSessionsIndex(project)
				if err != nil || index == nil {
					continue
				}
				eligible := 0
				pending := 0
				for _, entry := range index.Entries {
					if !claudecode.Eligible(entry) {
						continue
					}
					eligible++
					if entry.ModifiedTime().After(marks[project]) {
						pending++
					}
				}
				fmt.Printf("%s  (%d eligible, %d pending)\n", project, eligible, pending)
			}
			return nil
		},
	}
}
