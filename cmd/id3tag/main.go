// Command id3tag is the CLI surface of spec.md §6: a single binary
// whose subcommands each take one positional source-directory argument
// and either report on, or rewrite, the ID3 tags of every .mp3 file
// found under it.
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ktkr.us/pkg/id3tag"
	"ktkr.us/pkg/id3tag/internal/batch"

	"github.com/spf13/cobra"
)

var workers int

func main() {
	log.SetFlags(0)
	log.SetOutput(os.Stdout)

	root := &cobra.Command{
		Use:          "id3tag",
		Short:        "Inspect and rewrite ID3v1/ID3v2 tags on MP3 files under a directory",
		SilenceUsage: true,
	}
	root.PersistentFlags().IntVar(&workers, "workers", 0, "batch concurrency (default: number of CPUs)")

	root.AddCommand(scanCmd(), removeV1Cmd(), removeV2Cmd(), convertCmd(), fullProcessCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("source directory %q: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %q is not a directory", path)
	}
	return nil
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <directory>",
		Short: "List the ID3 versions present in every .mp3 file under <directory>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args[0])
		},
	}
}

func runScan(dir string) error {
	if err := requireDir(dir); err != nil {
		return err
	}
	results, err := batch.Run(dir, workers, []string{".mp3"}, func(path string) (string, error) {
		f, err := id3tag.Load(path)
		if err != nil {
			return "", err
		}
		var versions []string
		if f.HasV10() {
			versions = append(versions, "v1.0")
		}
		if f.HasV11() {
			versions = append(versions, "v1.1")
		}
		if f.HasV20() {
			versions = append(versions, "v2.0")
		}
		if f.HasV23() {
			versions = append(versions, "v2.3")
		}
		if f.HasV24() {
			versions = append(versions, "v2.4")
		}
		if len(versions) == 0 {
			return "no ID3 tags", nil
		}
		return strings.Join(versions, ", "), nil
	})
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			log.Printf("%s: error: %v", r.Path, r.Err)
			continue
		}
		log.Printf("%s: %s", r.Path, r.Message)
	}
	return nil
}

func removeV1Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-v1 <directory>",
		Short: `Copy <directory> to "<directory> - No ID3v1" with ID3v1 trailers stripped`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := stripTree(args[0], " - No ID3v1", func(f *id3tag.MpegFile) error {
				ts, err := f.GetTags()
				if err != nil {
					return err
				}
				ts.RemoveV1()
				f.SetTags(ts)
				return nil
			})
			return err
		},
	}
}

func removeV2Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-v2 <directory>",
		Short: `Copy <directory> to "<directory> - No ID3v2" with ID3v2 prefixes stripped`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := stripTree(args[0], " - No ID3v2", func(f *id3tag.MpegFile) error {
				ts, err := f.GetTags()
				if err != nil {
					return err
				}
				ts.RemoveV2()
				f.SetTags(ts)
				return nil
			})
			return err
		},
	}
}

func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert-v24-to-v10 <directory>",
		Short: `Copy <directory> to "<directory> - v2.4 to v1.0" projecting ID3v2.4 fields onto an ID3v1.0 trailer`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := stripTree(args[0], " - v2.4 to v1.0", func(f *id3tag.MpegFile) error {
				ts, err := f.GetTags()
				if err != nil {
					return err
				}
				if ts.V2 == nil {
					return nil
				}
				ts.V1 = id3tag.ConvertV24ToV10(ts.V2)
				f.SetTags(ts)
				return nil
			})
			return err
		},
	}
}

func fullProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "full-process <directory>",
		Short: "scan, strip ID3v1, scan, strip ID3v2, scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if err := runScan(src); err != nil {
				return err
			}
			dir1, err := stripTree(src, " - No ID3v1", func(f *id3tag.MpegFile) error {
				ts, err := f.GetTags()
				if err != nil {
					return err
				}
				ts.RemoveV1()
				f.SetTags(ts)
				return nil
			})
			if err != nil {
				return err
			}
			if err := runScan(dir1); err != nil {
				return err
			}
			dir2, err := stripTree(dir1, " - No ID3v2", func(f *id3tag.MpegFile) error {
				ts, err := f.GetTags()
				if err != nil {
					return err
				}
				ts.RemoveV2()
				f.SetTags(ts)
				return nil
			})
			if err != nil {
				return err
			}
			return runScan(dir2)
		},
	}
}

// stripTree copies src to src+suffix (non-mp3 files verbatim, .mp3
// files through mp3Fn) and returns the destination path.
func stripTree(src, suffix string, mp3Fn func(*id3tag.MpegFile) error) (string, error) {
	if err := requireDir(src); err != nil {
		return "", err
	}
	dest := src + suffix

	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if strings.ToLower(filepath.Ext(path)) != ".mp3" {
			return copyFile(path, target)
		}
		return nil // .mp3 files are handled by the batch pass below
	})
	if err != nil {
		return "", err
	}

	results, err := batch.Run(src, workers, []string{".mp3"}, func(source string) (string, error) {
		rel, err := filepath.Rel(src, source)
		if err != nil {
			return "", err
		}
		target := filepath.Join(dest, rel)
		f, err := id3tag.Load(source)
		if err != nil {
			return "", err
		}
		if err := mp3Fn(f); err != nil {
			return "", err
		}
		if err := f.Save(target); err != nil {
			return "", err
		}
		return "processed", nil
	})
	if err != nil {
		return "", err
	}
	for _, r := range results {
		if r.Err != nil {
			log.Printf("%s: error: %v", r.Path, r.Err)
			continue
		}
		log.Printf("%s: %s", r.Path, r.Message)
	}

	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
