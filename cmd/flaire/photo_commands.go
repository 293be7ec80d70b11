package main

import (
	"fmt"

	"flaire-cli/internal/photos"
	"flaire-cli/internal/session"

	"github.com/spf13/cobra"
)

func newPhotosCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Manage profile photos",
	}
	cmd.AddCommand(newPhotosUploadCommand(app))
	return cmd
}

func newPhotosUploadCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <files...>",
		Short: "Store photos on the backend",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := app.store.Current()
			if sess == nil {
				return session.ErrNotSignedIn
			}

			library := photos.NewLibrary()
			if _, err := library.Add(args...); err != nil {
				return err
			}
			uploaded, err := library.EnsureUploaded(cmd.Context(), app.client, sess.Token)
			if err != nil {
				return err
			}
			for _, photo := range uploaded {
				fmt.Printf("%s\t%s\n", photo.DisplayName, photo.RemoteID)
			}
			return nil
		},
	}
}
