package demoserver

// PageVersion is one state of a demo page. Version 1 of every page carries
// deliberate accessibility defects; higher versions progressively fix them so
// two audits can be compared.
type PageVersion struct {
	HTML        string
	ContentType string
}

// PageDefinition describes a demo page and its available versions.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns the built-in demo pages.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		{
			Path:        "/",
			Description: "Home page: missing lang attribute, image without alt, generic link text",
			Versions: map[int]PageVersion{
				1: {HTML: `<!DOCTYPE html>
<html>
<head><title>Prefeitura Demo</title></head>
<body>
	<img src="/static/banner.jpg">
	<h1>Bem-vindo</h1>
	<p>Acesse nossos serviços online.</p>
	<a href="/contato">clique aqui</a>
	<a href="/galeria">saiba mais</a>
</body>
</html>`},
				2: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Prefeitura Demo</title></head>
<body>
	<a href="#conteudo">Ir para o conteúdo</a>
	<img src="/static/banner.jpg" alt="Fachada da prefeitura ao amanhecer">
	<main id="conteudo">
		<h1>Bem-vindo</h1>
		<p>Acesse nossos serviços online.</p>
		<a href="/contato">Fale com a ouvidoria</a>
		<a href="/galeria">Veja a galeria de fotos</a>
	</main>
</body>
</html>`},
			},
		},
		{
			Path:        "/contato",
			Description: "Contact form: inputs without labels, uppercase headings",
			Versions: map[int]PageVersion{
				1: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Contato</title></head>
<body>
	<h1>FALE CONOSCO PELO FORMULARIO ABAIXO OU LIGUE PARA NOSSA CENTRAL</h1>
	<form action="/contato" method="post">
		<input type="text" name="nome" placeholder="Nome">
		<input type="email" name="email" placeholder="E-mail">
		<textarea name="mensagem"></textarea>
		<button type="submit">Enviar</button>
	</form>
</body>
</html>`},
				2: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Contato</title></head>
<body>
	<h1>Fale conosco</h1>
	<form action="/contato" method="post">
		<label for="nome">Nome</label>
		<input type="text" id="nome" name="nome">
		<label for="email">E-mail</label>
		<input type="email" id="email" name="email">
		<label for="mensagem">Mensagem</label>
		<textarea id="mensagem" name="mensagem"></textarea>
		<button type="submit">Enviar</button>
	</form>
</body>
</html>`},
			},
		},
		{
			Path:        "/galeria",
			Description: "Photo gallery: filename alt texts, auto-navigating select",
			Versions: map[int]PageVersion{
				1: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Galeria</title></head>
<body>
	<h1>Galeria de fotos</h1>
	<select onchange="window.location=this.value">
		<option value="/galeria?ano=2024">2024</option>
		<option value="/galeria?ano=2025">2025</option>
	</select>
	<img src="/static/IMG_20240512_093301.jpg" alt="IMG_20240512_093301.jpg">
	<img src="/static/DSC04411.jpg" alt="DSC04411.jpg">
</body>
</html>`},
				2: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Galeria</title></head>
<body>
	<h1>Galeria de fotos</h1>
	<form action="/galeria" method="get">
		<label for="ano">Ano</label>
		<select id="ano" name="ano">
			<option value="2024">2024</option>
			<option value="2025">2025</option>
		</select>
		<button type="submit">Filtrar</button>
	</form>
	<img src="/static/IMG_20240512_093301.jpg" alt="Inauguração da nova creche municipal">
	<img src="/static/DSC04411.jpg" alt="Praça central após a reforma">
</body>
</html>`},
			},
		},
		{
			Path:        "/video",
			Description: "Media page: autoplaying video without captions",
			Versions: map[int]PageVersion{
				1: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Campanha</title></head>
<body>
	<h1>Campanha de vacinação</h1>
	<video src="/static/campanha.mp4" autoplay></video>
</body>
</html>`},
				2: {HTML: `<!DOCTYPE html>
<html lang="pt-BR">
<head><title>Campanha</title></head>
<body>
	<h1>Campanha de vacinação</h1>
	<video src="/static/campanha.mp4" controls>
		<track kind="captions" src="/static/campanha.vtt" srclang="pt" label="Português">
	</video>
</body>
</html>`},
			},
		},
	}
}
