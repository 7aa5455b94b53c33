package typeindex

// Declaration is the singleton annotation carried by a registered type.
// Empty strings fall back to the type name and the kind's default folder.
type Declaration struct {
	// DisplayName names the asset created for the type.
	DisplayName string

	// FolderPath is where the asset is created, relative to the asset root.
	// When Inherited is set it also applies to every subtype without its own declaration.
	FolderPath string

	// Inherited makes every concrete subtype an implicit singleton type.
	Inherited bool
}

// DeclarationOption configures a Declaration.
type DeclarationOption func(*Declaration)

// Named overrides the display name of the singleton asset.
func Named(name string) DeclarationOption {
	return func(d *Declaration) {
		d.DisplayName = name
	}
}

// InFolder overrides the folder the singleton asset is created in.
func InFolder(folder string) DeclarationOption {
	return func(d *Declaration) {
		d.FolderPath = folder
	}
}

// Inherited propagates the declaration to subtypes.
func Inherited() DeclarationOption {
	return func(d *Declaration) {
		d.Inherited = true
	}
}
