// Package cli implements the arqvault inspection tool: low-level commands
// for poking at a backup target from a shell while debugging.
package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/arqvault/arqvault/backupset"
	"github.com/arqvault/arqvault/packset"
)

const ArqvaultVersion = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "arqvault",
	Short: "Arqvault inspects Arq backup targets",
	Long:  `Arqvault decodes the on-disk Arq backup format: key vaults, packsets, commits, trees and folder metadata.`,
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Printf("Arqvault Version %s\n", ArqvaultVersion)
			os.Exit(0)
		}
		cmd.Help()
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var (
	version  bool
	target   string
	password string
)

func init() {
	rootCmd.Flags().BoolVar(&version, "version", false, "Print the arqvault version")
	rootCmd.PersistentFlags().StringVarP(&target, "target", "t", ".", "Backup target root directory")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "Encryption password")

	rootCmd.AddCommand(computersCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(foldersCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(commitsCmd)
}

// unlockedComputer opens a computer handle and unlocks it with the
// --password flag, bailing out on failure.
func unlockedComputer(uuid string) *backupset.Computer {
	c := backupset.Open(target).Computer(uuid)
	if err := c.Unlock(password); err != nil {
		log.Fatalf("Unlock %s: %v", uuid, err)
	}
	return c
}

var computersCmd = &cobra.Command{
	Use:   "computers",
	Short: "List the computers stored in the target",
	Run: func(cmd *cobra.Command, args []string) {
		infos, err := backupset.Open(target).Computers()
		if err != nil {
			log.Fatalf("List computers: %v", err)
		}
		for _, info := range infos {
			fmt.Printf("%s  %s (%s)\n", info.UUID, info.ComputerName, info.UserName)
		}
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys <computer-uuid>",
	Short: "Unlock a computer's encryptionv3.dat and report the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := unlockedComputer(args[0])
		fmt.Printf("Unlocked %s: %d master keys\n", args[0], len(c.MasterKeys()))
	},
}

var foldersCmd = &cobra.Command{
	Use:   "folders <computer-uuid>",
	Short: "Decrypt and list a computer's folder descriptors",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := unlockedComputer(args[0])
		folders, err := c.Folders()
		if err != nil {
			log.Fatalf("List folders: %v", err)
		}
		for _, fo := range folders {
			fmt.Printf("%s  %s (%s)\n", fo.BucketUUID, fo.BucketName, fo.LocalPath)
		}
	},
}

var indexCmd = &cobra.Command{
	Use:   "index <file.index>",
	Short: "Dump a pack index: version, records, glacier tail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		f, err := os.Open(args[0])
		if err != nil {
			log.Fatalf("Open index: %v", err)
		}
		defer f.Close()
		ix, err := packset.ReadPackIndex(f)
		if err != nil {
			log.Fatalf("Parse index: %v", err)
		}
		fmt.Printf("version %d, %d objects\n", ix.Version, len(ix.Objects))
		for _, obj := range ix.Objects {
			fmt.Printf("%s  offset=%d len=%d\n", obj.SHA1, obj.Offset, obj.DataLen)
		}
		if ix.GlacierArchiveIDPresent {
			fmt.Printf("glacier archive %s, pack size %d\n", ix.GlacierArchiveID, ix.GlacierPackSize)
		}
	},
}

var commitsCmd = &cobra.Command{
	Use:   "commits <computer-uuid> <folder-uuid>",
	Short: "Walk a folder's commit chain from its head",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		c := unlockedComputer(args[0])
		fv, err := c.Browse(args[1])
		if err != nil {
			log.Fatalf("Browse folder: %v", err)
		}
		defer fv.Close()

		sha1, err := fv.HeadSHA1()
		if err != nil {
			log.Fatalf("Read head: %v", err)
		}
		for sha1 != "" {
			commit, err := fv.Commit(sha1)
			if err != nil {
				log.Fatalf("Load commit %s: %v", sha1, err)
			}
			fmt.Printf("%s  %s  tree=%s  complete=%v\n", sha1, commit.CreationDate, commit.TreeSHA1, commit.IsComplete)
			sha1 = ""
			for parent := range commit.ParentCommits {
				sha1 = parent
			}
		}
	},
}
