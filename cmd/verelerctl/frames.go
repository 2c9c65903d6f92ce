package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddwmvv/projetovereler-sub001/internal/dto"
	"github.com/eddwmvv/projetovereler-sub001/internal/model"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
)

var importActor string

var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "Frame inventory spreadsheets",
}

var framesTemplateCmd = &cobra.Command{
	Use:   "template <file.xlsx>",
	Short: "Write an empty import spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buf, err := newServices(nil).Frame.ImportTemplate()
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "template written to %s\n", args[0])
		return nil
	},
}

var framesImportCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import frames from a spreadsheet; nothing is written if any row fails",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		db, closeDB, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB()

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		repo := repository.NewRepository(db)
		svc := newServices(repo)
		sess := service.Session{Role: model.RoleAdmin}
		if importActor != "" {
			user, err := repo.User.GetByEmail(ctx, importActor)
			if err != nil {
				return fmt.Errorf("actor %s: %w", importActor, err)
			}
			sess.UserID = user.UserID
		}

		rows, err := svc.Frame.ParseImportFile(f)
		if err != nil {
			return err
		}
		result, err := svc.Frame.Import(ctx, sess, rows)
		if err != nil {
			return err
		}
		return printImportResult(cmd.OutOrStdout(), result)
	},
}

func printImportResult(w io.Writer, result *dto.FrameImportResponse) error {
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Numbering != "" {
				fmt.Fprintf(w, "row %d (%s): %s\n", e.Row, e.Numbering, e.Reason)
			} else {
				fmt.Fprintf(w, "row %d: %s\n", e.Row, e.Reason)
			}
		}
		return fmt.Errorf("import rejected: %d row error(s)", len(result.Errors))
	}
	fmt.Fprintf(w, "%d frame(s) imported\n", result.Created)
	for _, name := range result.SizesCreated {
		fmt.Fprintf(w, "new size: %s\n", name)
	}
	return nil
}

func init() {
	framesImportCmd.Flags().StringVar(&importActor, "actor", "", "email of the user recorded as creator")
	framesCmd.AddCommand(framesTemplateCmd, framesImportCmd)
}
