package table

import (
	"fmt"
	"regexp"
	"strings"
)

var plainIdent = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Identifier : keyspace qualified table name
type Identifier struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	Name      string `json:"name" yaml:"name"`
}

// Qualify : builds an identifier in the given namespace
func Qualify(namespace string, name string) Identifier {
	return Identifier{Namespace: namespace, Name: name}
}

// String : namespace.name , or just the name when there is no namespace
func (i Identifier) String() string {
	if i.Namespace == "" {
		return i.Name
	}
	return i.Namespace + "." + i.Name
}

// Split : splits "ks.table" into its qualifier and local part. an unqualified name comes
// back with an empty qualifier
func Split(name string) (qualifier string, local string) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return "", name
	}
	return name[:idx], name[idx+1:]
}

// Naming : how target tables map back to their origin
type Naming struct {
	Namespace string
	Suffix    string
}

// Check : reports why a declared target name cannot be expanded under this naming
func (n Naming) Check(name string) error {
	qualifier, local := Split(strings.TrimSpace(name))
	if local == "" {
		return fmt.Errorf("table name %q has an empty local part", name)
	}
	if !plainIdent.MatchString(local) {
		return fmt.Errorf("table name %q is not a plain identifier", name)
	}
	if qualifier != "" && qualifier != n.Namespace {
		return fmt.Errorf("table name %q is qualified with %q, expected %q", name, qualifier, n.Namespace)
	}
	if n.Suffix == "" || !strings.Contains(local, n.Suffix) {
		return fmt.Errorf("table name %q does not contain suffix %q", name, n.Suffix)
	}
	if strings.Replace(local, n.Suffix, "", 1) == "" {
		return fmt.Errorf("table name %q is only the suffix %q", name, n.Suffix)
	}
	return nil
}

// Target : the qualified target identifier for a declared name
func (n Naming) Target(name string) Identifier {
	_, local := Split(strings.TrimSpace(name))
	return Qualify(n.Namespace, local)
}

// Origin : the qualified origin identifier, the suffix is removed once from the leftmost
// occurrence of the local name
func (n Naming) Origin(name string) Identifier {
	_, local := Split(strings.TrimSpace(name))
	return Qualify(n.Namespace, strings.Replace(local, n.Suffix, "", 1))
}
