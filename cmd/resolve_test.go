// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const aliasTable = `# known BS-21 switches
5C:B6:CC:00:1A:AE 1234 livingroom
5C:B6:CC:00:1B:01 5678 lamp left
5C:B6:CC:00:1B:02 9999 lamp right
AA:BB:CC:00:00:00 1111 not-a-bs21
5C:B6:CC:00:1C:03 12ab bad-pin
5C:B6:CC:00:1D:04
`

func writeAliasTable(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, ".known_bs21")
	if err := os.WriteFile(path, []byte(aliasTable), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadKnownDevicesSkipsInvalidLines(t *testing.T) {
	writeAliasTable(t)

	devices, err := loadKnownDevices(knownDevicesPath())
	if err != nil {
		t.Fatalf("loadKnownDevices: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3: %+v", len(devices), devices)
	}
	if devices[1].Alias != "lamp left" {
		t.Errorf("got alias %q, want %q", devices[1].Alias, "lamp left")
	}
}

func TestResolveDeviceByAliasPrefix(t *testing.T) {
	writeAliasTable(t)

	dev, err := resolveDevice("living", "")
	if err != nil {
		t.Fatalf("resolveDevice: %v", err)
	}
	if dev.Address != "5C:B6:CC:00:1A:AE" || dev.PIN != "1234" || dev.Alias != "livingroom" {
		t.Fatalf("got %+v", dev)
	}
}

func TestResolveDeviceAmbiguousAlias(t *testing.T) {
	writeAliasTable(t)

	_, err := resolveDevice("lamp", "")
	if err == nil {
		t.Fatal("resolveDevice(lamp) succeeded, want ambiguity error")
	}
	if !strings.Contains(err.Error(), "lamp left") || !strings.Contains(err.Error(), "lamp right") {
		t.Errorf("error does not list candidates: %v", err)
	}
}

func TestResolveDeviceByMAC(t *testing.T) {
	writeAliasTable(t)

	// A known MAC picks up alias and PIN from the table.
	dev, err := resolveDevice("5c:b6:cc:00:1a:ae", "")
	if err != nil {
		t.Fatalf("resolveDevice: %v", err)
	}
	if dev.Address != "5C:B6:CC:00:1A:AE" || dev.PIN != "1234" || dev.Alias != "livingroom" {
		t.Fatalf("got %+v", dev)
	}

	// An unknown MAC still resolves, without table data.
	dev, err = resolveDevice("5C:B6:CC:FF:FF:FF", "")
	if err != nil {
		t.Fatalf("resolveDevice: %v", err)
	}
	if dev.Address != "5C:B6:CC:FF:FF:FF" || dev.PIN != "" || dev.Alias != "" {
		t.Fatalf("got %+v", dev)
	}
}

func TestResolveDeviceExplicitPINWins(t *testing.T) {
	writeAliasTable(t)

	dev, err := resolveDevice("livingroom", "4321")
	if err != nil {
		t.Fatalf("resolveDevice: %v", err)
	}
	if dev.PIN != "4321" {
		t.Errorf("got PIN %q, want 4321", dev.PIN)
	}
}

func TestResolveDeviceUnknownAlias(t *testing.T) {
	writeAliasTable(t)

	if _, err := resolveDevice("garage", ""); err == nil {
		t.Fatal("resolveDevice(garage) succeeded, want error")
	}
}

func TestKnownDevicesMissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	devices, err := loadKnownDevices(knownDevicesPath())
	if err != nil {
		t.Fatalf("loadKnownDevices: %v", err)
	}
	if devices != nil {
		t.Fatalf("got %+v, want empty table", devices)
	}
}
