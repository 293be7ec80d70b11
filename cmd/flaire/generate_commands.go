package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"flaire-cli/internal/models"
	"flaire-cli/internal/photos"
	"flaire-cli/internal/session"
	"flaire-cli/internal/usage"
	"flaire-cli/internal/workflow"

	"github.com/spf13/cobra"
)

func newProfileCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile generation",
	}
	cmd.AddCommand(newProfileGenerateCommand(app))
	return cmd
}

func newProfileGenerateCommand(app *appContext) *cobra.Command {
	var viaUpload bool
	var prefs []string

	cmd := &cobra.Command{
		Use:   "generate <photos...>",
		Short: "Generate dating-profile text from your photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library := photos.NewLibrary()
			if _, err := library.Add(args...); err != nil {
				return err
			}

			builder := workflow.NewProfileBuilder(app.client, app.tracker)
			builder.OnProgress(printProgress(builder.StepLabels()))

			var profile *models.GeneratedProfile
			var err error
			if viaUpload {
				sess := app.store.Current()
				if sess == nil {
					return session.ErrNotSignedIn
				}
				profile, err = builder.BuildUploaded(cmd.Context(), library, sess.Token)
			} else {
				profile, err = builder.Build(cmd.Context(), library.List(), parsePrefs(prefs))
			}
			if err != nil {
				return describeGateError(err)
			}

			fmt.Println()
			fmt.Println(profile.Bio)
			if len(profile.Traits) > 0 {
				fmt.Println("Traits:    " + strings.Join(profile.Traits, ", "))
			}
			if len(profile.Interests) > 0 {
				fmt.Println("Interests: " + strings.Join(profile.Interests, ", "))
			}
			fmt.Printf("Match: %d%%  Strength: %s\n", profile.MatchPercentage, profile.ProfileStrength)
			return nil
		},
	}

	cmd.Flags().BoolVar(&viaUpload, "upload", false, "Upload photos and generate from stored resources")
	cmd.Flags().StringArrayVar(&prefs, "pref", nil, "Generation preference as key=value (repeatable)")
	return cmd
}

func newOpenersCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "openers",
		Short: "Conversation starters",
	}
	cmd.AddCommand(newOpenersGenerateCommand(app))
	return cmd
}

func newOpenersGenerateCommand(app *appContext) *cobra.Command {
	var hint string
	var prefs []string

	cmd := &cobra.Command{
		Use:   "generate <photo>",
		Short: "Generate conversation starters for a match's photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			photo := models.CrushPhoto{
				Path:        abs,
				PreviewURI:  "file://" + abs,
				DisplayName: filepath.Base(abs),
			}

			builder := workflow.NewOpenerBuilder(app.client, app.tracker)
			builder.OnProgress(printProgress(builder.StepLabels()))

			openers, err := builder.Build(cmd.Context(), photo, hint, parsePrefs(prefs))
			if err != nil {
				return describeGateError(err)
			}

			fmt.Println()
			for i, opener := range openers {
				fmt.Printf("%d. [%d%%] %s\n", i+1, opener.Confidence, opener.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hint, "context", "", "Extra context about the match")
	cmd.Flags().StringArrayVar(&prefs, "pref", nil, "Generation preference as key=value (repeatable)")
	return cmd
}

// printProgress renders stage transitions as numbered step lines.
func printProgress(labels []string) workflow.ProgressFunc {
	seen := -1
	return func(stage workflow.Stage, step int) {
		if stage == workflow.StageError || stage == workflow.StageDone {
			return
		}
		if step == seen || step >= len(labels) {
			return
		}
		seen = step
		fmt.Printf("[%d/%d] %s\n", step+1, len(labels), labels[step])
	}
}

func parsePrefs(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	prefs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			prefs[pair] = true
			continue
		}
		prefs[key] = value
	}
	return prefs
}

func describeGateError(err error) error {
	if errors.Is(err, usage.ErrQuotaExceeded) {
		return fmt.Errorf("plan limit reached: upgrade with 'flaire upgrade pro' to continue")
	}
	return err
}
