package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"modgraph/internal/export"
	"modgraph/internal/gen"
	"modgraph/internal/graph"
	"modgraph/internal/project"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	embed      bool
	modDir     string
	scriptName string
	modData    project.ModData
	treeDepth  int
)

var compileCmd = &cobra.Command{
	Use:   "compile [project]",
	Short: "Compile a project file and print or write the script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readProject(args[0])
		if err != nil {
			return err
		}
		res, err := gen.CompileDocument(doc, gen.WithLogger(logger))
		if err != nil {
			return err
		}
		for _, d := range res.Diagnostics {
			logger.Warn().Str("severity", string(d.Severity)).Str("node", d.NodeID).Msg(d.Message)
		}

		script := res.Source
		if embed {
			if script, err = export.Wrap(res.Source, doc); err != nil {
				return err
			}
		}

		if modDir != "" {
			name := scriptName
			if name == "" {
				name = defaultScriptName(doc)
			}
			path, err := project.WriteScript(modDir, name, []byte(script))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}
		return writeOutput(cmd.OutOrStdout(), outputPath, []byte(script))
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover [script]",
	Short: "Extract the project embedded in an exported script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := export.Recover(string(data))
		if err != nil {
			return err
		}
		out, err := graph.EncodeDocument(doc)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputPath, out)
	},
}

var packCmd = &cobra.Command{
	Use:   "pack [project.json]",
	Short: "Compress a plain project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := readProject(args[0])
		if err != nil {
			return err
		}
		res, err := project.Encode(doc)
		if err != nil {
			return err
		}
		target := outputPath
		if target == "" {
			target = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".r5vp"
		}
		if err = os.WriteFile(target, res.Data, 0o644); err != nil {
			return err
		}
		logger.Info().Int("original", res.OriginalSize).Int("compressed", res.CompressedSize).Str("path", target).Msg("Project packed")
		fmt.Fprintln(cmd.OutOrStdout(), target)
		return nil
	},
}

var unpackCmd = &cobra.Command{
	Use:   "unpack [project]",
	Short: "Print a compressed project file as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		content, _, err := project.Decompress(data)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputPath, content)
	},
}

var newModCmd = &cobra.Command{
	Use:   "new-mod",
	Short: "Scaffold an empty mod folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validator.New().Struct(modData); err != nil {
			return err
		}
		dir, err := project.CreateMod(modData)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dir)
		return nil
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree [folder]",
	Short: "List a mod folder as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := project.FileTree(args[0], treeDepth)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	},
}

func init() {
	compileCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the script to this file instead of stdout")
	compileCmd.Flags().BoolVarP(&embed, "embed", "e", false, "Embed the project so the script can be recovered")
	compileCmd.Flags().StringVar(&modDir, "mod", "", "Write the script into this mod's scripts folder")
	compileCmd.Flags().StringVar(&scriptName, "name", "", "Script file name when --mod is set")

	recoverCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the project to this file instead of stdout")
	packCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Target file (defaults to the input with a .r5vp extension)")
	unpackCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the project to this file instead of stdout")

	newModCmd.Flags().StringVar(&modData.Name, "name", "", "Display name")
	newModCmd.Flags().StringVar(&modData.ModID, "id", "", "Mod id, used as folder name")
	newModCmd.Flags().StringVar(&modData.Description, "description", "", "Description")
	newModCmd.Flags().StringVar(&modData.Author, "author", "", "Author")
	newModCmd.Flags().StringVar(&modData.Version, "version", "1.0.0", "Version")
	newModCmd.Flags().StringVar(&modData.Path, "path", ".", "Parent folder")

	treeCmd.Flags().IntVar(&treeDepth, "depth", project.DefaultTreeDepth, "Maximum depth")

	rootCmd.AddCommand(compileCmd, recoverCmd, packCmd, unpackCmd, newModCmd, treeCmd)
}

// readProject loads a compressed or plain project file, or an exported
// script carrying an embedded project.
func readProject(path string) (*graph.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".nut" {
		return export.Recover(string(data))
	}
	return project.Decode(data)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultScriptName(doc *graph.Document) string {
	id := doc.Metadata.ModID
	if id == "" {
		id = "mod"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, id) + ".nut"
}
