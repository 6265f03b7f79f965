package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"ocrweb/internal/domain"
	"ocrweb/internal/render"
	"ocrweb/internal/storage"
)

func newProcessCmd(c *cli) *cobra.Command {
	var (
		outPath string
		docx    bool
		bundle  bool
	)
	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Convert a PDF or image to Markdown",
		Long: `Submit a PDF, JPEG, PNG or WebP file for OCR. The Markdown is printed to
stdout unless --out is given. With --docx the result is converted to Word, and
with --zip both files are packed into one archive; either is written to --out,
or to EXPORT_DIR when --out is omitted.`,
		Example: `  ocrctl process invoice.pdf > invoice.md
  ocrctl process scan.png --docx --out scan.docx
  ocrctl process scan.png --zip`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd)
			if err != nil {
				return err
			}
			data, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			ctx := cmd.Context()
			// Seed the local gate; on failure the backend still enforces the balance.
			_ = svc.Quota.Refresh(ctx)

			_, err = svc.Documents.Submit(ctx, domain.Upload{Filename: filepath.Base(args[0]), Data: data})
			if errors.Is(err, domain.ErrQuotaBlocked) {
				return blockedError{}
			}
			if err != nil {
				return err
			}
			doc := svc.Documents.Current()

			var f render.File
			if docx || bundle {
				id, err := svc.Session.Current(ctx)
				if err != nil {
					return err
				}
				convert := svc.Exporter.Docx
				if bundle {
					convert = svc.Exporter.Bundle
				}
				if f, err = convert(ctx, id, doc); err != nil {
					return err
				}
			} else if f, err = svc.Exporter.Markdown(doc); err != nil {
				return err
			}

			switch {
			case outPath != "":
				path, err := writeFile(cmd, outPath, f.Data)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			case docx || bundle:
				path, err := svc.Exporter.Save(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			default:
				fmt.Fprintln(cmd.OutOrStdout(), doc.Markdown)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the result to this file")
	cmd.Flags().BoolVar(&docx, "docx", false, "convert the result to a Word document")
	cmd.Flags().BoolVar(&bundle, "zip", false, "export Markdown and Word together as a zip archive")
	cmd.MarkFlagsMutuallyExclusive("docx", "zip")
	return cmd
}

func writeFile(cmd *cobra.Command, path string, data []byte) (string, error) {
	files, err := storage.NewFileStore(filepath.Dir(path))
	if err != nil {
		return "", err
	}
	key, err := files.Write(cmd.Context(), filepath.Base(path), data)
	if err != nil {
		return "", err
	}
	return files.Path(key)
}

func newRenderCmd() *cobra.Command {
	var outline bool
	cmd := &cobra.Command{
		Use:   "render <file.md>",
		Short: "Render Markdown (with LaTeX math) to HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			if outline {
				for _, h := range render.Outline(string(src)) {
					fmt.Fprintf(out, "%*s%s\n", (h.Level-1)*2, "", h.Text)
				}
				return nil
			}
			html, err := render.HTML(string(src))
			if err != nil {
				return err
			}
			fmt.Fprint(out, html)
			return nil
		},
	}
	cmd.Flags().BoolVar(&outline, "outline", false, "print the heading outline instead")
	return cmd
}
