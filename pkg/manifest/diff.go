package manifest

// Diff returns the artifacts in `current` that need to be transferred.
// When there's no previous manifest, every artifact is new. Otherwise an
// artifact is included iff its path is missing from `previous`, or its digest
// differs. Paths that only exist in `previous` are ignored.
// The result keeps the order of `current` and never contains placeholders.
func Diff(previous Manifest, havePrevious bool, current Manifest) (toTransfer []Artifact) {
	var prevDigests map[string]string
	if havePrevious {
		prevDigests = previous.Digests()
	}

	for _, a := range current {
		if a.IsPlaceholder() {
			continue
		}

		if havePrevious {
			if digest, ok := prevDigests[a.Path]; ok && digest == a.Digest {
				continue
			}
		}
		toTransfer = append(toTransfer, a)
	}
	return toTransfer
}
