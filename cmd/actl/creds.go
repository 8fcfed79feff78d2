package main

import (
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/addressbook"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/config"
	"github.com/ProfessorAire/AvConsoleToolkit-sub001/internal/session"
	"github.com/pkg/errors"
)

// resolveConnection resolves the host and credential a subcommand
// should connect with, per spec.md's supplemented credential
// resolution order: explicit flags first, then an address-book lookup
// by host/name, then a distinct exit code for each failure mode
// (spec.md §6 exit codes 101/102).
func resolveConnection(cfg *config.Config, flags connectionFlags) (host string, cred session.Credential, err error) {
	if flags.address == "" {
		return "", session.Credential{}, withExitCode(exitCredentialsMissing,
			errors.New("no --address given and nothing to resolve it against"))
	}

	if flags.username != "" && (flags.password != "" || flags.keyPath != "") {
		return flags.address, session.Credential{
			Username:       flags.username,
			Password:       flags.password,
			PrivateKeyPath: flags.keyPath,
			KeyPassphrase:  flags.keyPass,
		}, nil
	}

	book, bookErr := loadAddressBook(cfg)
	if bookErr == nil {
		if entry, ok := lookupEntry(book, flags.address); ok {
			if !entry.HasCredentials() && flags.password == "" && flags.keyPath == "" {
				return "", session.Credential{}, withExitCode(exitAddressBookNoCreds,
					errors.Errorf("address-book entry %q has no password or private key", entry.Name))
			}
			return entry.Host, mergeEntryWithFlags(entry, flags), nil
		}
	}

	return "", session.Credential{}, withExitCode(exitCredentialsMissing,
		errors.Errorf("no credentials for %q: not fully specified and not in an address book", flags.address))
}

func lookupEntry(book *addressbook.Book, nameOrHost string) (addressbook.Entry, bool) {
	if entry, ok := book.Lookup(nameOrHost); ok {
		return entry, true
	}
	return book.LookupByHost(nameOrHost)
}

func mergeEntryWithFlags(entry addressbook.Entry, flags connectionFlags) session.Credential {
	cred := session.Credential{
		Username:       entry.Username,
		Password:       entry.Password,
		PrivateKeyPath: entry.PrivateKeyPath,
		KeyPassphrase:  entry.KeyPassphrase,
	}
	if flags.username != "" {
		cred.Username = flags.username
	}
	if flags.password != "" {
		cred.Password = flags.password
	}
	if flags.keyPath != "" {
		cred.PrivateKeyPath = flags.keyPath
		cred.KeyPassphrase = flags.keyPass
	}
	return cred
}

func loadAddressBook(cfg *config.Config) (*addressbook.Book, error) {
	raw, err := cfg.Get(config.KeyAddressBooksLocation)
	if err != nil || raw == "" {
		return addressbook.Load(nil)
	}
	return addressbook.Load(addressbook.ParseLocations(raw))
}
