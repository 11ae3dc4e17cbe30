package main

import (
	"errors"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"deployer/internal/deployerr"
)

const unknownBranchMsg = "no deployment configured for branch"

// classify attaches an exit-code bearing errbuilder code to a configuration
// failure. The input error stays reachable as the cause.
func classify(err error) error {
	var cfgErr *deployerr.Error
	if !errors.As(err, &cfgErr) {
		return err
	}

	code := errbuilder.CodeInternal
	switch cfgErr.Kind {
	case deployerr.KindParse, deployerr.KindStructure, deployerr.KindType,
		deployerr.KindValue, deployerr.KindCrossField:
		code = errbuilder.CodeInvalidArgument
	case deployerr.KindIO, deployerr.KindPath, deployerr.KindTask:
		code = errbuilder.CodeNotFound
	}

	return errbuilder.New().
		WithCode(code).
		WithMsg(cfgErr.Error()).
		WithCause(err)
}

func unknownBranchError(branch string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(unknownBranchMsg + " '" + branch + "'")
}

func exitCodeForError(err error) int {
	code := errbuilder.CodeOf(err)
	switch code {
	case errbuilder.CodeInvalidArgument:
		return 2
	case errbuilder.CodeNotFound:
		if strings.HasPrefix(errorMessage(err), unknownBranchMsg) {
			return 4
		}
		return 3
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}

func reportError(err error) {
	event := log.Error()
	if subject := deployerr.SubjectOf(err); subject != "" {
		event = event.Str("subject", subject)
	}
	event.Msg(errorMessage(err))
}
