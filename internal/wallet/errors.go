package wallet

import "errors"

var (
	// ErrGenericAPI is returned for any backend failure the caller cannot act on.
	ErrGenericAPI = errors.New("wallet api request failed")

	// ErrIncorrectPassword indicates the backend rejected the wallet passphrase.
	ErrIncorrectPassword = errors.New("incorrect wallet password")

	// ErrInvalidMnemonic indicates the recovery phrase is not a valid BIP39 mnemonic.
	ErrInvalidMnemonic = errors.New("invalid recovery phrase")

	// ErrNameNotFound is returned by name repositories for unknown wallets.
	ErrNameNotFound = errors.New("wallet name not found")
)
