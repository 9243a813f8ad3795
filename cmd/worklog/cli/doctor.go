package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jack-x/worklog/cmd/worklog/cli/claudecode"
	"github.com/jack-x/worklog/cmd/worklog/cli/paths"
	"github.com/jack-x/worklog/cmd/worklog/cli/settings"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the worklog setup",
		Long:  "Verify settings, credentials, and session store access without publishing anything.",
		RunE: func(_ *cobra.Command, _ []string) error {
			failed := false
			check := func(name string, err error) {
				if err != nil {
					failed = true
					fmt.Printf("  ✗ %s: %v\n", name, err)
					return
				}
				fmt.Printf("  ✓ %s\n", name)
			}

			home, err := paths.Home()
			check("worklog home", err)
			if err == nil {
				fmt.Printf("      %s\n", home)
			}

			s, err := settings.Load()
			check("settings load", err)
			if err != nil {
				return NewSilentError(err)
			}
			check("settings contract", s.Validate())

			storeErr := checkSessionStore(s.SessionPaths.ClaudeCode)
			check("session store", storeErr)

			if failed {
				return NewSilentError(errors.New("setup is incomplete"))
			}
			fmt.Println("Everything looks good.")
			return nil
		},
	}
}

// checkSessionStore verifies the base directory exists and lists at least
// zero projects without erroring.
func checkSessionStore(base string) error {
	if base == "" {
		return errors.New("sessionPaths.claudeCode is empty")
	}
	if _, err := os.Stat(base); err != nil {
		return fmt.Errorf("base directory: %w", err)
	}

	store := claudecode.NewStore(base)
	projects, err := store.ListProjects()
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		return fmt.Errorf("no projects with a readable index under %s", base)
	}
	return nil
}
