package permissions

// Resources of the PrevTech dashboard
var DefaultResources = []string{
	"Contratos",
	"Contatos",
	"Tarefas",
	"Agenda",
	"Publicações",
	"Relatórios",
	"KPIs",
	"Integrações",
	"Clientes",
}

// Access profiles
var DefaultProfiles = []string{
	"Administrador",
	"Diretor",
	"Advogado",
	"Estagiário",
	"Financeiro",
}

// DefaultMatrix seeds the grid: administrators and directors get full
// access, lawyers work on the case screens, interns mostly read and the
// finance profile owns contracts and reports.
func DefaultMatrix() *Matrix {
	m := NewMatrix(DefaultResources, DefaultProfiles)

	grant := func(profile string, resources []string, actions ...Action) {
		for _, r := range resources {
			for _, a := range actions {
				m.Set(r, profile, a, true)
			}
		}
	}

	grant("Administrador", DefaultResources, Actions...)
	grant("Diretor", DefaultResources, Actions...)
	grant("Advogado", DefaultResources, Read)
	grant("Advogado", []string{"Contatos", "Tarefas", "Agenda", "Publicações", "Clientes"}, Create, Update)
	grant("Advogado", []string{"Tarefas", "Agenda"}, Delete)
	grant("Estagiário", []string{"Contatos", "Tarefas", "Agenda", "Publicações", "Clientes"}, Read)
	grant("Estagiário", []string{"Tarefas"}, Create, Update)
	grant("Financeiro", []string{"Contratos", "Relatórios", "KPIs", "Clientes"}, Read)
	grant("Financeiro", []string{"Contratos", "Relatórios"}, Create, Update)

	return m
}
