package contract

const testPkg = "example.com/api"

var (
	userType   = Named(testPkg, "User")
	animalType = Named(testPkg, "Animal")
	dogType    = Named(testPkg, "Dog").WithSupers(animalType)
)

func marker(kind string, values ...string) Marker {
	return Marker{Kind: kind, Values: values}
}

func withOption(m Marker, name, value string) Marker {
	opts := make(map[string]string, len(m.Options)+1)
	for k, v := range m.Options {
		opts[k] = v
	}
	opts[name] = value
	m.Options = opts
	return m
}

func get(path string) Marker {
	return marker(MarkerRequestLine, "GET", path)
}

func post(path string) Marker {
	return marker(MarkerRequestLine, "POST", path)
}

func param(name string, t TypeRef, markers ...Marker) ParamDesc {
	return ParamDesc{Name: name, Type: t, Markers: markers}
}

func method(name string, ret TypeRef, markers []Marker, params ...ParamDesc) *MethodDesc {
	return &MethodDesc{Name: name, Return: ret, Markers: markers, Params: params}
}

func iface(name string, methods ...*MethodDesc) *InterfaceDesc {
	return &InterfaceDesc{Name: name, Package: testPkg, Methods: methods}
}

func markers(ms ...Marker) []Marker { return ms }
