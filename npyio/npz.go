package npyio

import (
	"bufio"
	"os"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/timpalpant/psro/payoff"
)

// WriteNPZ saves the named arrays to output as an .npz archive, which
// numpy.load returns as a mapping from name to array.
func WriteNPZ(output string, arrays map[string]*payoff.Tensor) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	b := bufio.NewWriter(f)
	z := zip.NewWriter(b)

	names := make([]string, 0, len(arrays))
	for name := range arrays {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w, err := z.Create(name + ".npy")
		if err != nil {
			return err
		}

		if err := Write(w, arrays[name]); err != nil {
			return err
		}
	}

	if err := z.Close(); err != nil {
		return err
	}
	if err := b.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// ReadNPZ loads every array in an .npz archive, keyed by name without
// the .npy extension.
func ReadNPZ(input string) (map[string]*payoff.Tensor, error) {
	z, err := zip.OpenReader(input)
	if err != nil {
		return nil, err
	}
	defer z.Close()

	result := make(map[string]*payoff.Tensor, len(z.File))
	for _, file := range z.File {
		r, err := file.Open()
		if err != nil {
			return nil, err
		}

		t, err := Read(r)
		r.Close()
		if err != nil {
			return nil, err
		}

		name := file.Name
		if len(name) > 4 && name[len(name)-4:] == ".npy" {
			name = name[:len(name)-4]
		}
		result[name] = t
	}

	return result, nil
}
