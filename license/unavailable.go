package license

// Unavailable is the protection client used when the deployment provides
// none. Every asset fails with ErrProtectionUnavailable.
type Unavailable struct{}

func (Unavailable) Open() (string, error) { return "", ErrProtectionUnavailable }

func (Unavailable) Challenge(string, []byte) ([]byte, error) { return nil, ErrProtectionUnavailable }

func (Unavailable) ParseLicense(string, []byte) error { return ErrProtectionUnavailable }

func (Unavailable) Keys(string) ([]Key, error) { return nil, ErrProtectionUnavailable }

func (Unavailable) Close(string) error { return nil }
