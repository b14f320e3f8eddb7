package commands

import (
	"errors"
	"fmt"
	"io"

	"wgward/internal/lifecycle"
)

type Service struct {
	LocalCommandsService LocalCommandsService
}

// handles the common pattern of running a command and reporting its failure
func (s *Service) executeCommand(errorPrefix string, errOut io.Writer, handler func() error) error {
	err := handler()

	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", errorPrefix, err)

		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(errOut, "%s\n", hint)
		}
	}

	return err
}

func errorHint(err error) string {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		return "Client names are 1-15 characters: letters, digits, '_' or '-'."
	case errors.Is(err, lifecycle.ErrResourceExhausted):
		return "The address pool is full. Remove unused clients to free addresses."
	case errors.Is(err, lifecycle.ErrExternalTool):
		return "Check that wireguard-tools is installed and that you have permission to manage the interface."
	default:
		return ""
	}
}

// client commands

func (s *Service) ClientAdd(stdOut io.Writer, errOut io.Writer, name string, createdBy int64) error {
	return s.executeCommand("Failed to add client", errOut, func() error {
		return s.LocalCommandsService.ClientAdd(stdOut, name, createdBy)
	})
}

func (s *Service) ClientRemove(stdOut io.Writer, errOut io.Writer, name string) error {
	return s.executeCommand("Failed to remove client", errOut, func() error {
		return s.LocalCommandsService.ClientRemove(stdOut, name)
	})
}

func (s *Service) ClientRename(stdOut io.Writer, errOut io.Writer, oldName string, newName string) error {
	return s.executeCommand("Failed to rename client", errOut, func() error {
		return s.LocalCommandsService.ClientRename(stdOut, oldName, newName)
	})
}

func (s *Service) ClientList(stdOut io.Writer, errOut io.Writer) error {
	return s.executeCommand("Failed to list clients", errOut, func() error {
		return s.LocalCommandsService.ClientList(stdOut)
	})
}

func (s *Service) ClientConfig(stdOut io.Writer, errOut io.Writer, name string, outputPath string) error {
	return s.executeCommand("Failed to get client config", errOut, func() error {
		return s.LocalCommandsService.ClientConfig(stdOut, name, outputPath)
	})
}

// server commands

func (s *Service) Stats(stdOut io.Writer, errOut io.Writer, includeAddresses bool, textfilePath string) error {
	return s.executeCommand("Failed to read interface stats", errOut, func() error {
		return s.LocalCommandsService.Stats(stdOut, includeAddresses, textfilePath)
	})
}

func (s *Service) Reconcile(stdOut io.Writer, errOut io.Writer) error {
	return s.executeCommand("Failed to reconcile clients", errOut, func() error {
		return s.LocalCommandsService.Reconcile(stdOut)
	})
}
