package install

// BundledData holds a server bundle linked into the binary by release
// builds. Development builds leave it empty and fall back to downloading
// the bundle from the release repository on first use.
var BundledData []byte
