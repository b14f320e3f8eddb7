package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"wgward/internal/lifecycle"
	"wgward/internal/metrics"

	"github.com/dustin/go-humanize"
	"github.com/moby/sys/atomicwriter"
)

type LocalCommandsService struct {
	Ctx     context.Context
	Manager *lifecycle.Manager
	Metrics *metrics.Metrics
}

func (s *LocalCommandsService) ctx() context.Context {
	if s.Ctx == nil {
		return context.Background()
	}

	return s.Ctx
}

// client

func (s *LocalCommandsService) ClientAdd(stdOut io.Writer, name string, createdBy int64) error {
	client, err := s.Manager.AddClient(s.ctx(), name, createdBy)

	if err != nil {
		return err
	}

	content, err := s.Manager.GetClientConfig(s.ctx(), name)

	if err != nil {
		return err
	}

	fmt.Fprintf(stdOut, "Client %s added\n", client.Name)
	fmt.Fprintf(stdOut, "   IPv4:   %s\n", client.IPv4)
	fmt.Fprintf(stdOut, "   IPv6:   %s\n", client.IPv6)
	fmt.Fprintf(stdOut, "   Config: %s\n\n", client.ConfigFilePath)
	fmt.Fprintf(stdOut, "%s\n", strings.Repeat("=", 80))
	fmt.Fprintf(stdOut, "%s", content)
	fmt.Fprintf(stdOut, "%s\n", strings.Repeat("=", 80))

	return nil
}

func (s *LocalCommandsService) ClientRemove(stdOut io.Writer, name string) error {
	removed, err := s.Manager.RemoveClient(s.ctx(), name)

	if err != nil {
		return err
	}

	if !removed {
		return fmt.Errorf("%w: client %q", lifecycle.ErrNotFound, name)
	}

	fmt.Fprintf(stdOut, "Client %s removed\n", name)

	return nil
}

func (s *LocalCommandsService) ClientRename(stdOut io.Writer, oldName string, newName string) error {
	client, err := s.Manager.RenameClient(s.ctx(), oldName, newName)

	if err != nil {
		return err
	}

	if oldName == newName {
		fmt.Fprintf(stdOut, "Client %s already has that name\n", client.Name)
		return nil
	}

	fmt.Fprintf(stdOut, "Client %s renamed to %s\n", oldName, client.Name)

	return nil
}

func (s *LocalCommandsService) ClientList(stdOut io.Writer) error {
	names, err := s.Manager.ListClients(s.ctx())

	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Fprintf(stdOut, "No clients\n")
		return nil
	}

	for _, name := range names {
		fmt.Fprintf(stdOut, "%s\n", name)
	}

	return nil
}

// ClientConfig prints the config, or writes it owner-only to outputPath.
func (s *LocalCommandsService) ClientConfig(stdOut io.Writer, name string, outputPath string) error {
	content, err := s.Manager.GetClientConfig(s.ctx(), name)

	if err != nil {
		return err
	}

	if outputPath == "" {
		_, err = stdOut.Write(content)
		return err
	}

	if err := atomicwriter.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("%w: %w", lifecycle.ErrIO, err)
	}

	fmt.Fprintf(stdOut, "Config for %s written to %s\n", name, outputPath)

	return nil
}

// server

func (s *LocalCommandsService) Stats(stdOut io.Writer, includeAddresses bool, textfilePath string) error {
	rows, err := s.Manager.GetStats(s.ctx(), includeAddresses)

	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Fprintf(stdOut, "No peers on the interface\n")
	} else {
		printStats(stdOut, rows, includeAddresses)
	}

	if textfilePath != "" {
		if err := s.Metrics.WriteTextfile(textfilePath); err != nil {
			return fmt.Errorf("%w: %w", lifecycle.ErrIO, err)
		}

		fmt.Fprintf(stdOut, "\nMetrics written to %s\n", textfilePath)
	}

	return nil
}

func printStats(stdOut io.Writer, rows []lifecycle.StatsRow, includeAddresses bool) {
	if includeAddresses {
		fmt.Fprintf(stdOut, "%-16s %-16s %-24s %-12s %10s %10s\n", "CLIENT", "ADDRESS", "ENDPOINT", "HANDSHAKE", "RX", "TX")
	} else {
		fmt.Fprintf(stdOut, "%-16s %-12s %10s %10s\n", "CLIENT", "HANDSHAKE", "RX", "TX")
	}

	for _, row := range rows {
		rx := humanize.IBytes(uint64(max(row.ReceiveBytes, 0)))
		tx := humanize.IBytes(uint64(max(row.TransmitBytes, 0)))

		if includeAddresses {
			fmt.Fprintf(stdOut, "%-16s %-16s %-24s %-12s %10s %10s\n", row.Name, dash(row.Address), dash(row.Endpoint), row.Handshake, rx, tx)
		} else {
			fmt.Fprintf(stdOut, "%-16s %-12s %10s %10s\n", row.Name, row.Handshake, rx, tx)
		}
	}
}

func dash(value string) string {
	if value == "" {
		return "-"
	}

	return value
}

func (s *LocalCommandsService) Reconcile(stdOut io.Writer) error {
	count, err := s.Manager.Reconcile(s.ctx())

	if err != nil {
		return err
	}

	// the manager reconciles when it is built, usually within this same run
	count += s.Manager.TakeStartupReconciled()

	fmt.Fprintf(stdOut, "Reconciled %d client(s)\n", count)

	return nil
}
