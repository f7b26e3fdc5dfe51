package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/stroyhub-backend/internal/models"
	"github.com/ignatzorin/stroyhub-backend/internal/repository"
)

// SeedService генерирует демонстрационные данные для тестирования.
type SeedService struct {
	userRepo     *repository.UserRepository
	requestRepo  *repository.RequestRepository
	propertyRepo *repository.PropertyRepository
}

// NewSeedService создаёт сервис генерации данных.
func NewSeedService(userRepo *repository.UserRepository, requestRepo *repository.RequestRepository, propertyRepo *repository.PropertyRepository) *SeedService {
	return &SeedService{
		userRepo:     userRepo,
		requestRepo:  requestRepo,
		propertyRepo: propertyRepo,
	}
}

// SeedData генерирует пользователей, заявки и объявления.
func (s *SeedService) SeedData(ctx context.Context, numUsers, numRequests, numProperties int) error {
	users, err := s.generateUsers(ctx, numUsers)
	if err != nil {
		return fmt.Errorf("seed service: generate users %w", err)
	}

	var clients []*models.User
	var providers []*models.User
	for _, user := range users {
		if user.Role == models.RoleClient {
			clients = append(clients, user)
		} else {
			providers = append(providers, user)
		}
	}

	if err := s.generateRequests(ctx, clients, numRequests); err != nil {
		return fmt.Errorf("seed service: generate requests %w", err)
	}

	if err := s.generateProperties(ctx, clients, numProperties); err != nil {
		return fmt.Errorf("seed service: generate properties %w", err)
	}

	return nil
}

func (s *SeedService) generateUsers(ctx context.Context, count int) ([]*models.User, error) {
	firstNames := []string{
		"Александр", "Дмитрий", "Максим", "Сергей", "Андрей", "Алексей", "Артём", "Илья",
		"Иван", "Михаил", "Никита", "Роман", "Анна", "Мария", "Елена", "Ольга",
		"Татьяна", "Наталья", "Ирина", "Екатерина",
	}
	lastNames := []string{
		"Иванов", "Петров", "Смирнов", "Козлов", "Соколов", "Попов", "Лебедев", "Новиков",
		"Морозов", "Волков", "Васильев", "Зайцев", "Павлов", "Семёнов", "Фёдоров", "Михайлов",
	}
	domains := []string{"gmail.com", "yandex.ru", "mail.ru"}
	companies := []string{
		"СтройГарант", "РемонтПро", "ДомСервис", "УютСтрой", "МастерокПлюс",
		"Капитель", "АртРемонт", "Фундамент", "СитиДом", "Отделкин",
	}

	passwordHash, _ := bcrypt.GenerateFromPassword([]byte("Password123"), bcrypt.DefaultCost)

	var users []*models.User
	for i := 0; i < count; i++ {
		firstName := firstNames[rand.Intn(len(firstNames))]
		lastName := lastNames[rand.Intn(len(lastNames))]
		email := fmt.Sprintf("%s.%s.%d@%s",
			toLatin(firstName), toLatin(lastName), rand.Intn(100000), domains[rand.Intn(len(domains))])

		user := &models.User{
			Email:        email,
			Name:         firstName + " " + lastName,
			PasswordHash: string(passwordHash),
			Role:         models.RoleClient,
		}
		if i%2 == 1 {
			user.Role = models.RoleProvider
			company := companies[rand.Intn(len(companies))]
			user.CompanyName = &company
		}

		if err := s.userRepo.Create(ctx, user); err != nil {
			// Дубликат email при повторном запуске — пропускаем.
			continue
		}
		users = append(users, user)
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("не удалось создать ни одного пользователя")
	}
	return users, nil
}

func (s *SeedService) generateRequests(ctx context.Context, clients []*models.User, count int) error {
	if len(clients) == 0 {
		return nil
	}

	types := []string{
		models.RequestTypeConstruction,
		models.RequestTypeRenovation,
		models.RequestTypeRental,
		models.RequestTypeBuySell,
	}
	objectTypes := []string{"дом", "баня", "гараж", "пристройка"}
	finishClasses := []string{"эконом", "стандарт", "премиум"}
	districts := []string{"Центральный", "Северный", "Южный", "Западный", "Восточный"}

	for i := 0; i < count; i++ {
		client := clients[rand.Intn(len(clients))]
		requestType := types[rand.Intn(len(types))]

		var details interface{}
		switch requestType {
		case models.RequestTypeConstruction:
			details = models.ConstructionDetails{
				ObjectType: objectTypes[rand.Intn(len(objectTypes))],
				AreaSqm:    float64(50 + rand.Intn(250)),
			}
		case models.RequestTypeRenovation:
			details = models.RenovationDetails{
				PropertyKind: "квартира",
				Rooms:        1 + rand.Intn(4),
				FinishClass:  finishClasses[rand.Intn(len(finishClasses))],
			}
		case models.RequestTypeRental:
			details = models.RentalDetails{
				District:   districts[rand.Intn(len(districts))],
				MaxRent:    float64(20000 + rand.Intn(80000)),
				TermMonths: 6 + rand.Intn(18),
			}
		case models.RequestTypeBuySell:
			details = models.BuySellDetails{
				PropertyKind: "квартира",
				DealSide:     "buy",
				PriceLimit:   float64(3000000 + rand.Intn(12000000)),
			}
		}

		raw, err := models.EncodeDetails(details)
		if err != nil {
			return err
		}

		req := &models.ServiceRequest{
			RequestType: requestType,
			ClientID:    client.ID,
			Budget:      float64(100000 + rand.Intn(5000000)),
			Details:     raw,
		}
		if err := s.requestRepo.Create(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *SeedService) generateProperties(ctx context.Context, owners []*models.User, count int) error {
	if len(owners) == 0 {
		return nil
	}

	cities := []string{"Москва", "Санкт-Петербург", "Казань", "Екатеринбург", "Новосибирск"}
	titles := []string{
		"Уютная квартира у метро", "Просторная студия в новостройке", "Дом с участком",
		"Двухкомнатная квартира с ремонтом", "Апартаменты в центре",
	}

	for i := 0; i < count; i++ {
		owner := owners[rand.Intn(len(owners))]
		kind := models.PropertyKindSale
		price := float64(3000000 + rand.Intn(15000000))
		if i%2 == 0 {
			kind = models.PropertyKindRent
			price = float64(20000 + rand.Intn(130000))
		}
		rooms := 1 + rand.Intn(4)
		area := float64(25 + rand.Intn(120))

		property := &models.Property{
			OwnerID:     owner.ID,
			Title:       titles[rand.Intn(len(titles))],
			Description: "Сгенерированное объявление для демонстрации.",
			Kind:        kind,
			Price:       price,
			Currency:    "RUB",
			City:        cities[rand.Intn(len(cities))],
			Address:     fmt.Sprintf("ул. Строителей, д. %d", 1+rand.Intn(120)),
			Rooms:       &rooms,
			AreaSqm:     &area,
			Images:      []string{},
		}
		if err := s.propertyRepo.Create(ctx, property); err != nil {
			return err
		}
	}
	return nil
}

// toLatin транслитерирует русское имя для email.
func toLatin(name string) string {
	translit := map[rune]string{
		'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e",
		'ж': "zh", 'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m",
		'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
		'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "sch",
		'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu", 'я': "ya",
	}

	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if latin, ok := translit[r]; ok {
			b.WriteString(latin)
		} else if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
