package typesystem

// The constructors below are the TypeInfo surface external callers use
// to build ascriptions in an untyped AST, named after the reference
// implementation's t_u8/t_gen_/t_cus_ family.

func TU8() TypeInfo  { return UnsignedInteger{Width: W8} }
func TU16() TypeInfo { return UnsignedInteger{Width: W16} }
func TU32() TypeInfo { return UnsignedInteger{Width: W32} }
func TU64() TypeInfo { return UnsignedInteger{Width: W64} }
func TUnit() TypeInfo { return Unit{} }

// TGen builds an unresolved type-parameter reference by name.
func TGen(name string) TypeInfo { return UnknownGeneric{Name: name} }

// TCustom builds a reference to a user-named type, to be elaborated by
// ResolveCustomTypes once the type arguments themselves have been
// interned.
func TCustom(name string, typeArguments []TypeID) TypeInfo {
	return Custom{Name: name, TypeArguments: typeArguments}
}
