package archive

import (
	"io"
	"os"

	"github.com/yeka/zip"
)

// Method selects the zip encryption scheme.
type Method = zip.EncryptionMethod

const (
	ZipCrypto = zip.StandardEncryption
	AES128    = zip.AES128Encryption
	AES256    = zip.AES256Encryption
)

type FileSpec struct {
	Name string
	Data []byte
}

// WriteZip writes files into a new zip at path, encrypting every entry
// with password unless password is empty.
func WriteZip(path, password string, method Method, files []FileSpec) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	for _, f := range files {
		var w io.Writer
		if password == "" {
			w, err = zw.Create(f.Name)
		} else {
			w, err = zw.Encrypt(f.Name, password, method)
		}
		if err != nil {
			return err
		}
		if _, err = w.Write(f.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
