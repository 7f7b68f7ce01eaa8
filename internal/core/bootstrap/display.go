package bootstrap

// DetectDisplay gathers evidence about a graphical session.
//
// Windows and macOS always have a native compositor; elsewhere a window needs
// an X11 or Wayland server reachable through the environment.
func DetectDisplay(h Host) []Evidence {
	var evidence []Evidence

	switch h.GOOS {
	case "windows", "darwin":
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "server", "native", 0.95,
			"runtime", "GOOS="+h.GOOS,
		))
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "available", true, 0.90,
			"runtime", "desktop operating system",
		))
		return evidence
	}

	if d := h.Getenv("WAYLAND_DISPLAY"); d != "" {
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "server", "wayland", 0.95,
			"environment", "WAYLAND_DISPLAY set",
		).WithRaw(map[string]any{"display": d}))
	}
	if d := h.Getenv("DISPLAY"); d != "" {
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "server", "x11", 0.90,
			"environment", "DISPLAY set",
		).WithRaw(map[string]any{"display": d}))
	}

	if len(evidence) == 0 {
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "available", false, 0.90,
			"environment", "neither DISPLAY nor WAYLAND_DISPLAY set",
		))
	} else {
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "available", true, 0.85,
			"environment", "display server variable present",
		))
	}

	if h.Getenv("SSH_CONNECTION") != "" {
		evidence = append(evidence, NewEvidence(
			CategoryDisplay, "remote_session", true, 0.95,
			"environment", "SSH_CONNECTION set",
		))
	}

	return evidence
}
