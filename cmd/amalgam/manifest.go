package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jward/amalgam"
)

var flagBuildID int64

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Show a build recorded in a manifest",
	Long:  "Reads the SQLite manifest written by \"build --manifest\" and prints the latest build, or the one selected with --build, with every module it bundled.",
	Args:  cobra.NoArgs,
	RunE:  runManifest,
}

func init() {
	manifestCmd.Flags().String("manifest", "", "SQLite manifest to read")
	manifestCmd.Flags().Int64Var(&flagBuildID, "build", 0, "build ID to show (default: latest)")
}

func runManifest(cmd *cobra.Command, args []string) error {
	if cfg.Manifest == "" {
		return outputError("manifest", fmt.Errorf("no manifest specified: use --manifest or set manifest in the config"))
	}
	s, err := amalgam.OpenManifest(cfg.Manifest)
	if err != nil {
		return outputError("manifest", err)
	}
	defer s.Close()

	var b *amalgam.ManifestBuild
	if flagBuildID != 0 {
		b, err = s.BuildByID(flagBuildID)
	} else {
		b, err = s.LatestBuild()
	}
	if err != nil {
		return outputError("manifest", err)
	}
	if b == nil {
		return outputError("manifest", fmt.Errorf("no build recorded in %s", cfg.Manifest))
	}

	out, err := toCLIManifestBuild(s, b)
	if err != nil {
		return outputError("manifest", err)
	}
	return outputResult(CLIResult{Command: "manifest", Results: out})
}

func toCLIManifestBuild(s *amalgam.Store, b *amalgam.ManifestBuild) (CLIManifestBuild, error) {
	out := CLIManifestBuild{
		ID:          b.ID,
		RootPath:    b.RootPath,
		OutputPath:  b.OutputPath,
		WorkingDir:  b.WorkingDir,
		OutputHash:  b.OutputHash,
		ModuleCount: b.ModuleCount,
		BuiltAt:     b.BuiltAt,
	}

	mods, err := s.ModulesByBuild(b.ID)
	if err != nil {
		return out, err
	}
	for _, m := range mods {
		cm := CLIManifestModule{
			Position:    m.Position,
			Name:        m.Name,
			Path:        m.Path,
			ContentHash: m.ContentHash,
			Root:        m.IsRoot,
		}
		if cm.Requires, err = s.RequiresByModule(m.ID); err != nil {
			return out, err
		}
		nss, err := s.NamespacesByModule(m.ID)
		if err != nil {
			return out, err
		}
		for _, ns := range nss {
			cm.Namespaces = append(cm.Namespaces, CLINamespace{Module: m.Name, Name: ns.Name, Active: ns.Active})
		}
		natives, err := s.NativeModulesByModule(m.ID)
		if err != nil {
			return out, err
		}
		for _, nm := range natives {
			cm.NativeModules = append(cm.NativeModules, nm.Name)
		}
		out.Modules = append(out.Modules, cm)
	}
	return out, nil
}
