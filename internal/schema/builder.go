package schema

// NewSchema creates an empty schema.
func NewSchema(description string) *Schema {
	return &Schema{
		Description: description,
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
	}
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }

// AddType registers t, replacing any type with the same name.
func (s *Schema) AddType(t *Type) *Schema {
	s.Types[t.Name] = t
	return s
}

// RemoveType removes the named type.
func (s *Schema) RemoveType(name string) *Schema {
	delete(s.Types, name)
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	s.Directives[d.Name] = d
	return s
}

// WithBuiltins registers the built-in scalar types and directives.
func (s *Schema) WithBuiltins() *Schema {
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective)
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type {
	t.Fields = append(t.Fields, f)
	return t
}

// Field returns the named field, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// RemoveField removes the named field if present.
func (t *Type) RemoveField(name string) *Type {
	for i, f := range t.Fields {
		if f.Name == name {
			t.Fields = append(t.Fields[:i], t.Fields[i+1:]...)
			break
		}
	}
	return t
}

func (t *Type) AddInterface(name string) *Type {
	t.Interfaces = append(t.Interfaces, name)
	return t
}

func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}

func (t *Type) AddEnumValue(v *EnumValue) *Type {
	t.EnumValues = append(t.EnumValues, v)
	return t
}

func (t *Type) AddInputField(v *InputValue) *Type {
	t.InputFields = append(t.InputFields, v)
	return t
}

func (t *Type) SetOneOf(oneOf bool) *Type {
	t.OneOf = oneOf
	return t
}

func NewField(name, description string, typeRef *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typeRef}
}

func (f *Field) SetExtend(e *Extend) *Field {
	f.Extend = e
	return f
}

func (f *Field) AddArgument(v *InputValue) *Field {
	f.Arguments = append(f.Arguments, v)
	return f
}

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func NewInputValue(name, description string, typeRef *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typeRef}
}

func (v *InputValue) SetDefault(def any) *InputValue {
	v.DefaultValue = def
	return v
}

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (v *EnumValue) Deprecate(reason string) *EnumValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}
