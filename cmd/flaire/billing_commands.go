package main

import (
	"fmt"

	"flaire-cli/internal/models"

	"github.com/spf13/cobra"
)

func newUpgradeCommand(app *appContext) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "upgrade <pro|premium>",
		Short: "Upgrade the subscription plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := models.PlanTier(args[0])

			if apply {
				// Simplified path: mutate the tier without checkout.
				sess, err := app.store.ApplyPlan(plan)
				if err != nil {
					return err
				}
				fmt.Printf("Plan is now %s. Usage counters reset.\n", sess.Plan)
				return nil
			}

			url, err := app.store.BeginUpgrade(cmd.Context(), plan)
			if err != nil {
				return err
			}
			fmt.Println("Complete the checkout in your browser:")
			fmt.Println("  " + url)
			fmt.Println("Then run: flaire refresh")
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Apply the plan immediately without checkout")
	return cmd
}
