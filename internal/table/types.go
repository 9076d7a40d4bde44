package table

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	TypeUnused          = uuid.MustParse("00000000-0000-0000-0000-000000000000")
	TypeLinuxFilesystem = uuid.MustParse("0FC63DAF-8483-4772-8E79-3D69D8477DE4")
	TypeEFISystem       = uuid.MustParse("C12A7328-F81F-11D2-BA4B-00A0C93EC93B")
	TypeBIOSBoot        = uuid.MustParse("21686148-6449-6E6F-744E-656564454649")
	TypeLinuxSwap       = uuid.MustParse("0657FD6D-A4AB-43C4-84E5-0933C84B4F4F")
	TypeLinuxHome       = uuid.MustParse("933AC7E1-2EB4-4F13-B844-0E14E2AEF915")
	TypeLinuxRootX86_64 = uuid.MustParse("4F68BCE3-E8CD-4DB1-96E7-FBCAF984B709")
	TypeLinuxLVM        = uuid.MustParse("E6D6D379-F507-44C2-A23C-238F2A3DF928")
	TypeLinuxRAID       = uuid.MustParse("A19D880F-05FC-4D3B-A006-743F0F84911E")
	TypeMicrosoftBasic  = uuid.MustParse("EBD0A0A2-B9E5-4433-87C0-68B6B72699C7")
	TypeMicrosoftMSR    = uuid.MustParse("E3C9E316-0B5C-4DB8-817D-F92DF00215AE")
)

var typeNames = map[uuid.UUID]string{
	TypeUnused:          "Unused entry",
	TypeLinuxFilesystem: "Linux filesystem data",
	TypeEFISystem:       "EFI System partition",
	TypeBIOSBoot:        "BIOS boot partition",
	TypeLinuxSwap:       "Linux swap",
	TypeLinuxHome:       "Linux /home",
	TypeLinuxRootX86_64: "Linux root (x86-64)",
	TypeLinuxLVM:        "Linux LVM",
	TypeLinuxRAID:       "Linux RAID",
	TypeMicrosoftBasic:  "Basic data partition",
	TypeMicrosoftMSR:    "Microsoft Reserved Partition (MSR)",
}

var typeAliases = map[string]uuid.UUID{
	"linux":             TypeLinuxFilesystem,
	"efi":               TypeEFISystem,
	"bios-boot":         TypeBIOSBoot,
	"swap":              TypeLinuxSwap,
	"linux-home":        TypeLinuxHome,
	"linux-root-x86-64": TypeLinuxRootX86_64,
	"lvm":               TypeLinuxLVM,
	"raid":              TypeLinuxRAID,
	"basic-data":        TypeMicrosoftBasic,
	"msr":               TypeMicrosoftMSR,
}

// TypeName returns a friendly name for a partition type GUID, or the GUID
// itself when it is not a well known type.
func TypeName(t uuid.UUID) string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return strings.ToUpper(t.String())
}

// ParseType accepts either a GUID or one of the aliases returned by
// TypeAliases.
func ParseType(s string) (uuid.UUID, error) {
	if t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	t, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Errorf("invalid partition type %q (use a GUID or one of: %s)",
			s, strings.Join(TypeAliases(), ", "))
	}
	return t, nil
}

// TypeAliases lists the accepted partition type names, sorted.
func TypeAliases() []string {
	out := make([]string, 0, len(typeAliases))
	for k := range typeAliases {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
