package entities

// DefaultRelationTypes are the built-in relationship types seeded on init.
// These cannot be deleted by users.
var DefaultRelationTypes = []RelationTypeDefinition{
	{
		Name:        RelationAlias,
		Description: "Another account belonging to the same person",
	},
	{
		Name:        RelationFamily,
		Description: "Relatives, spouses, household members",
	},
	{
		Name:        RelationPersonal,
		Description: "Friends and personal acquaintances",
	},
	{
		Name:        RelationProfessional,
		Description: "Colleagues, clients, business contacts",
	},
}

// DefaultTypeNames returns just the names of default types for quick lookup.
func DefaultTypeNames() []RelationType {
	names := make([]RelationType, len(DefaultRelationTypes))
	for i, t := range DefaultRelationTypes {
		names[i] = t.Name
	}
	return names
}

// IsDefaultType checks if a type name is a built-in default.
func IsDefaultType(name RelationType) bool {
	for _, t := range DefaultRelationTypes {
		if t.Name == name {
			return true
		}
	}
	return false
}
